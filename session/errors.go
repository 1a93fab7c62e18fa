package session

import "errors"

var (
	// ErrNoSession is returned when no session exists for a token.
	ErrNoSession = errors.New("session not found")
	// ErrSessionExpired is returned when a session passed its destroy
	// deadline; the stale record is discarded on the way out.
	ErrSessionExpired = errors.New("session has expired")
	// ErrTokenGeneration is returned when the CSPRNG fails. Callers must
	// treat this as fatal: no session may be issued without entropy.
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrNilParameter is returned when a required dependency is nil.
	ErrNilParameter = errors.New("nil parameter")
	// ErrInvalidParameter is returned for invalid durations or arguments.
	ErrInvalidParameter = errors.New("invalid parameter")
)
