package oidc

import (
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
)

// TestProvider is a local fake identity provider. It serves an autodiscovery
// document, a token endpoint that issues signed id_tokens, an optional
// userinfo endpoint and a JWKS endpoint, which is enough to exercise the
// whole exchange path without a real IdP.
type TestProvider struct {
	t          *testing.T
	httpServer *httptest.Server
	signingKey *ecdsa.PrivateKey
	keyID      string

	mu               sync.Mutex
	clientID         string
	subject          string
	customClaims     map[string]interface{}
	userInfoEnabled  bool
	lastTokenRequest  url.Values
	tokenRequests     int
	discoveryRequests int
}

// StartTestProvider starts the fake provider's http server. The server is
// shut down via t.Cleanup.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	_, priv := TestGenerateKeys(t)
	p := &TestProvider{
		t:            t,
		signingKey:   priv,
		keyID:        "test-key",
		clientID:     "test-client",
		subject:      "test-subject",
		customClaims: map[string]interface{}{},
	}
	p.httpServer = httptest.NewServer(p.routes())
	t.Cleanup(p.httpServer.Close)
	return p
}

// Addr returns the base URL of the fake provider.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// DiscoveryURL returns the full autodiscovery document URL.
func (p *TestProvider) DiscoveryURL() string {
	return p.httpServer.URL + "/.well-known/openid-configuration"
}

// AuthorizeURL returns the fake authorization endpoint.
func (p *TestProvider) AuthorizeURL() string { return p.httpServer.URL + "/authorize" }

// TokenURL returns the fake token endpoint.
func (p *TestProvider) TokenURL() string { return p.httpServer.URL + "/token" }

// UserInfoURL returns the fake userinfo endpoint.
func (p *TestProvider) UserInfoURL() string { return p.httpServer.URL + "/userinfo" }

// SetClientID sets the audience used in issued id_tokens.
func (p *TestProvider) SetClientID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = id
}

// SetSubject sets the subject used in issued id_tokens and userinfo payloads.
func (p *TestProvider) SetSubject(sub string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subject = sub
}

// SetCustomClaim adds a claim to issued id_tokens and userinfo payloads.
func (p *TestProvider) SetCustomClaim(name string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims[name] = value
}

// SetUserInfoEnabled controls whether the discovery document advertises a
// userinfo endpoint.
func (p *TestProvider) SetUserInfoEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userInfoEnabled = enabled
}

// LastTokenRequest returns the form values of the most recent token exchange.
func (p *TestProvider) LastTokenRequest() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTokenRequest
}

// TokenRequestCount returns how many token exchanges the provider served.
func (p *TestProvider) TokenRequestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// DiscoveryRequestCount returns how many times the autodiscovery document was
// fetched.
func (p *TestProvider) DiscoveryRequestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.discoveryRequests
}

func (p *TestProvider) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", p.handleDiscovery)
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/userinfo", p.handleUserInfo)
	mux.HandleFunc("/.well-known/jwks.json", p.handleJWKS)
	return mux
}

func (p *TestProvider) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discoveryRequests++
	doc := map[string]interface{}{
		"issuer":                 p.httpServer.URL,
		"authorization_endpoint": p.httpServer.URL + "/authorize",
		"token_endpoint":         p.httpServer.URL + "/token",
		"jwks_uri":               p.httpServer.URL + "/.well-known/jwks.json",
	}
	if p.userInfoEnabled {
		doc["userinfo_endpoint"] = p.httpServer.URL + "/userinfo"
	}
	writeJSON(p.t, w, doc)
}

func (p *TestProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	require := require.New(p.t)
	require.NoError(r.ParseForm())

	p.mu.Lock()
	p.lastTokenRequest = r.PostForm
	p.tokenRequests++
	clientID := p.clientID
	subject := p.subject
	custom := map[string]interface{}{}
	for k, v := range p.customClaims {
		custom[k] = v
	}
	p.mu.Unlock()

	idToken := TestSignJWT(p.t, p.signingKey, p.keyID,
		TestDefaultClaims(p.httpServer.URL, clientID, subject), custom)
	writeJSON(p.t, w, map[string]interface{}{
		"access_token": "test-access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     idToken,
	})
}

func (p *TestProvider) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer test-access-token" {
		http.Error(w, "invalid bearer token", http.StatusUnauthorized)
		return
	}
	p.mu.Lock()
	payload := map[string]interface{}{"sub": p.subject}
	for k, v := range p.customClaims {
		payload[k] = v
	}
	p.mu.Unlock()
	writeJSON(p.t, w, payload)
}

func (p *TestProvider) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	set := jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       p.signingKey.Public(),
			KeyID:     p.keyID,
			Algorithm: string(jose.ES256),
			Use:       "sig",
		}},
	}
	writeJSON(p.t, w, set)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}
