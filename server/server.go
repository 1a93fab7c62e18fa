package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/anca-dev/anca-server/session"
)

// Config holds the boundary-layer settings.
type Config struct {
	// WebURI is where the browser is sent after the auth flow, on success
	// and on failure alike. Defaults to "/".
	WebURI string

	// InstanceName is the deployment display name served on /info.
	InstanceName string
}

// Server owns the HTTP surface of the authentication subsystem.
type Server struct {
	sessions *session.Service
	config   Config
	logger   hclog.Logger
}

// New wires a Server around the session service.
// Supported options: WithLogger
func New(sessions *session.Service, config Config, opt ...Option) (*Server, error) {
	const op = "server.New"
	if sessions == nil {
		return nil, fmt.Errorf("%s: session service is nil: %w", op, session.ErrNilParameter)
	}
	if config.WebURI == "" {
		config.WebURI = "/"
	}
	opts := getServerOpts(opt...)
	logger := opts.withLogger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		sessions: sessions,
		config:   config,
		logger:   logger,
	}, nil
}

// Routes returns the mux for the authentication subsystem.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", s.HandleAuth)
	mux.HandleFunc("/auth/callback", s.HandleCallback)
	mux.Handle("/auth/logout", s.RequireSession(http.HandlerFunc(s.HandleLogout)))
	mux.Handle("/ping", s.RequireSession(http.HandlerFunc(s.HandlePing)))
	mux.HandleFunc("/info", s.HandleInfo)
	return mux
}

// HandleAuth starts the login flow: the response body is markup that sends
// the browser to the provider's authorize URL. On any failure the browser is
// redirected back to the web URI; the cause is logged only.
func (s *Server) HandleAuth(w http.ResponseWriter, r *http.Request) {
	markup, err := s.sessions.StartLogin(r.Context())
	if err != nil {
		s.logger.Error("login start failed", "error", err)
		http.Redirect(w, r, s.config.WebURI, http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(markup)); err != nil {
		s.logger.Error("unable to write authorize markup", "error", err)
	}
}

// HandleCallback completes the login flow: it exchanges the code, sets the
// session cookie and redirects to the web URI. On failure the user lands at
// the same place without a cookie.
func (s *Server) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	token, err := s.sessions.CompleteLogin(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		s.logger.Error("login failed", "error", err)
		http.Redirect(w, r, s.config.WebURI, http.StatusFound)
		return
	}
	s.setSessionCookie(w, token)
	http.Redirect(w, r, s.config.WebURI, http.StatusFound)
}

// HandleLogout discards the gated session, clears the cookie and redirects to
// the web URI.
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := tokenFromContext(r.Context()); ok {
		if err := s.sessions.Logout(r.Context(), token); err != nil {
			s.logger.Error("logout failed", "error", err)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, s.config.WebURI, http.StatusFound)
}

// HandlePing echoes the gated session's display info, which is how the web
// client learns whether (and as whom) it is logged in.
func (s *Server) HandlePing(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFromContext(r.Context())
	if !ok {
		// RequireSession always attaches the identity; reaching this point
		// means the handler was mounted without the gate.
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s.writeJSON(w, map[string]string{"name": ident.Name})
}

// HandleInfo serves the static instance display name, unauthenticated.
func (s *Server) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"name": s.config.InstanceName})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("unable to write json response", "error", err)
	}
}

// Option defines a common functional options type
type Option func(interface{})

// serverOptions is the set of available options for New
type serverOptions struct {
	withLogger hclog.Logger
}

// getServerOpts gets the defaults and applies the opt overrides passed in
func getServerOpts(opt ...Option) serverOptions {
	var opts serverOptions
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// WithLogger provides an optional logger for the server
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*serverOptions); ok {
			o.withLogger = l
		}
	}
}
