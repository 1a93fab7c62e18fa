package server

import (
	"net/http"
	"time"

	"github.com/anca-dev/anca-server/session"
)

// CookieName is the session cookie issued after a completed login. Its value
// is the raw opaque token, never the hash.
const CookieName = "ancaSession"

// setSessionCookie issues (or overwrites) the session cookie. The cookie
// expires with the session's hard deadline.
func (s *Server) setSessionCookie(w http.ResponseWriter, token session.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(token),
		Path:     "/",
		Expires:  time.Now().Add(s.sessions.ExpireAfter()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the session cookie from the client.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionTokenFromRequest reads the raw token from the request cookie.
func sessionTokenFromRequest(r *http.Request) (session.Token, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return session.Token(cookie.Value), true
}
