package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anca-dev/anca-server/oidc"
	"github.com/anca-dev/anca-server/session"
)

// testServer stands up the whole subsystem against a fake provider: oidc
// client, memory store, session service and the http boundary under test.
func testServer(t *testing.T, sessionCfg session.Config) (*Server, *oidc.TestProvider) {
	t.Helper()
	require := require.New(t)

	tp := oidc.StartTestProvider(t)
	tp.SetSubject("alice")
	tp.SetCustomClaim("name", "Alice Author")

	client, err := oidc.NewClient(&oidc.Config{
		ClientID:         "test-client",
		ClientSecret:     "test-secret",
		RedirectURL:      "http://localhost:8990/auth/callback",
		AutodiscoveryURL: tp.DiscoveryURL(),
		Scope:            "openid profile",
	})
	require.NoError(err)

	svc, err := session.NewService(session.NewMemStore(), client, sessionCfg)
	require.NoError(err)

	srv, err := New(svc, Config{WebURI: "/app", InstanceName: "Anca Test"})
	require.NoError(err)
	return srv, tp
}

func defaultSessionConfig() session.Config {
	return session.Config{
		RefreshAfter: time.Hour,
		ExpireAfter:  24 * time.Hour,
	}
}

// login runs the callback handler and returns the issued session cookie.
func login(t *testing.T, mux *http.ServeMux) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=test-code&state=st_state", nil)
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	cookie := cookieByName(rec.Result().Cookies(), CookieName)
	require.NotNil(t, cookie, "callback issued no session cookie")
	return cookie
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	_, err := New(nil, Config{})
	require.ErrorIs(err, session.ErrNilParameter)

	srv, _ := testServer(t, defaultSessionConfig())
	require.Equal("/app", srv.config.WebURI)
}

func TestHandleAuth(t *testing.T) {
	t.Parallel()

	t.Run("serves-authorize-markup", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		srv, tp := testServer(t, defaultSessionConfig())
		mux := srv.Routes()

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth", nil))

		require.Equal(http.StatusOK, rec.Code)
		assert.Contains(rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(rec.Body.String(), `http-equiv="refresh"`)
		assert.Contains(rec.Body.String(), tp.AuthorizeURL())
	})

	t.Run("failure-redirects-to-web-uri", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		// no authorize endpoint resolves, so starting the flow fails
		client, err := oidc.NewClient(&oidc.Config{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			RedirectURL:  "http://localhost:8990/auth/callback",
			TokenURL:     "http://localhost:1/token",
		})
		require.NoError(err)
		svc, err := session.NewService(session.NewMemStore(), client, defaultSessionConfig())
		require.NoError(err)
		srv, err := New(svc, Config{WebURI: "/app"})
		require.NoError(err)

		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth", nil))

		require.Equal(http.StatusFound, rec.Code)
		assert.Equal("/app", rec.Header().Get("Location"))
	})
}

func TestHandleCallback(t *testing.T) {
	t.Parallel()

	t.Run("success-sets-cookie-and-redirects", func(t *testing.T) {
		assert := assert.New(t)
		srv, _ := testServer(t, defaultSessionConfig())
		mux := srv.Routes()

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=test-code&state=st_state", nil))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("/app", rec.Header().Get("Location"))

		cookie := cookieByName(rec.Result().Cookies(), CookieName)
		require.NotNil(t, cookie)
		assert.NotEmpty(cookie.Value)
		assert.True(cookie.HttpOnly)
		assert.Equal(http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal("/", cookie.Path)
		assert.False(cookie.Expires.IsZero())
	})

	t.Run("missing-code-redirects-without-cookie", func(t *testing.T) {
		assert := assert.New(t)
		srv, tp := testServer(t, defaultSessionConfig())
		mux := srv.Routes()

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("/app", rec.Header().Get("Location"))
		assert.Nil(cookieByName(rec.Result().Cookies(), CookieName))
		assert.Equal(0, tp.TokenRequestCount())
	})
}

func TestHandlePing(t *testing.T) {
	t.Parallel()

	t.Run("no-cookie", func(t *testing.T) {
		srv, _ := testServer(t, defaultSessionConfig())
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown-token-clears-cookie", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		srv, _ := testServer(t, defaultSessionConfig())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-real-token"})
		srv.Routes().ServeHTTP(rec, req)

		require.Equal(http.StatusUnauthorized, rec.Code)
		cleared := cookieByName(rec.Result().Cookies(), CookieName)
		require.NotNil(cleared)
		assert.Empty(cleared.Value)
		assert.Negative(cleared.MaxAge)
	})

	t.Run("valid-session", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		srv, _ := testServer(t, defaultSessionConfig())
		mux := srv.Routes()
		cookie := login(t, mux)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.AddCookie(cookie)
		mux.ServeHTTP(rec, req)

		require.Equal(http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal("Alice Author", body["name"])
		// well inside the rotation window, the cookie stays untouched
		assert.Nil(cookieByName(rec.Result().Cookies(), CookieName))
	})

	t.Run("rotation-overwrites-cookie", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		srv, _ := testServer(t, session.Config{
			RefreshAfter: time.Nanosecond,
			ExpireAfter:  time.Hour,
		})
		mux := srv.Routes()
		cookie := login(t, mux)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.AddCookie(cookie)
		mux.ServeHTTP(rec, req)

		require.Equal(http.StatusOK, rec.Code)
		rotated := cookieByName(rec.Result().Cookies(), CookieName)
		require.NotNil(rotated)
		assert.NotEmpty(rotated.Value)
		assert.NotEqual(cookie.Value, rotated.Value)

		// the pre-rotation token is single use
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.AddCookie(cookie)
		mux.ServeHTTP(rec, req)
		assert.Equal(http.StatusUnauthorized, rec.Code)

		// the rotated token keeps working
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.AddCookie(rotated)
		mux.ServeHTTP(rec, req)
		assert.Equal(http.StatusOK, rec.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	srv, _ := testServer(t, defaultSessionConfig())
	mux := srv.Routes()
	cookie := login(t, mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(cookie)
	mux.ServeHTTP(rec, req)

	require.Equal(http.StatusFound, rec.Code)
	assert.Equal("/app", rec.Header().Get("Location"))
	cleared := cookieByName(rec.Result().Cookies(), CookieName)
	require.NotNil(cleared)
	assert.Empty(cleared.Value)

	// the session is gone server-side too
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(cookie)
	mux.ServeHTTP(rec, req)
	assert.Equal(http.StatusUnauthorized, rec.Code)
}

func TestHandleInfo(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	srv, _ := testServer(t, defaultSessionConfig())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	require.Equal(http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal("Anca Test", body["name"])
}
