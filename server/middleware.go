package server

import (
	"errors"
	"net/http"

	"github.com/anca-dev/anca-server/session"
)

// RequireSession gates a handler behind a valid session cookie. Requests
// without a cookie get a 401 immediately; invalid sessions get their cookie
// cleared and a 401; any unexpected verification error also yields a 401
// with a generic body (fail closed, never fail open). On success the session
// identity is attached to the request context, and a rotated token, when the
// verify call produced one, overwrites the cookie before the next handler
// runs.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := sessionTokenFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ident, rotated, err := s.sessions.Verify(r.Context(), token)
		switch {
		case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrSessionExpired):
			clearSessionCookie(w)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		case err != nil:
			s.logger.Error("session verification failed", "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if rotated != "" {
			s.setSessionCookie(w, rotated)
			token = rotated
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), ident, token)))
	})
}
