package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"

	"github.com/anca-dev/anca-server/oidc"
)

// Config holds the two durations that shape every session's lifecycle.
type Config struct {
	// RefreshAfter is how long after creation (or the last rotation) a
	// session keeps its token before a verify call must rotate it.
	RefreshAfter time.Duration

	// ExpireAfter is how long after creation (or the last rotation) a
	// session is unconditionally invalid.
	ExpireAfter time.Duration
}

// Validate the config. The rotation window must precede the hard expiry.
func (c Config) Validate() error {
	const op = "session.(Config).Validate"
	if c.RefreshAfter <= 0 {
		return fmt.Errorf("%s: refresh duration is not positive: %w", op, ErrInvalidParameter)
	}
	if c.ExpireAfter <= 0 {
		return fmt.Errorf("%s: expire duration is not positive: %w", op, ErrInvalidParameter)
	}
	if c.RefreshAfter > c.ExpireAfter {
		return fmt.Errorf("%s: refresh duration exceeds expire duration: %w", op, ErrInvalidParameter)
	}
	return nil
}

// Exchanger is the provider-facing collaborator the service drives. It is
// satisfied by *oidc.Client.
type Exchanger interface {
	AuthorizeMarkup(ctx context.Context) (string, error)
	Exchange(ctx context.Context, code, state string) (*oidc.Identity, error)
}

// Identity is what a verified session exposes to the request pipeline.
type Identity struct {
	SessionID string
	AuthorID  string
	Name      string
}

// Service implements the authentication protocol: start login, complete
// login, verify. The store and exchanger are injected; the service owns no
// package-level state.
type Service struct {
	store     Store
	exchanger Exchanger
	config    Config
	logger    hclog.Logger

	// now is replaceable in tests to steer the session clock.
	now func() time.Time
}

// NewService wires a Service from its collaborators.
// Supported options: WithLogger
func NewService(store Store, exchanger Exchanger, config Config, opt ...Option) (*Service, error) {
	const op = "session.NewService"
	if store == nil {
		return nil, fmt.Errorf("%s: store is nil: %w", op, ErrNilParameter)
	}
	if exchanger == nil {
		return nil, fmt.Errorf("%s: exchanger is nil: %w", op, ErrNilParameter)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getServiceOpts(opt...)
	logger := opts.withLogger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		store:     store,
		exchanger: exchanger,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// StartLogin returns the markup that sends the browser to the provider's
// authorize endpoint.
func (s *Service) StartLogin(ctx context.Context) (string, error) {
	const op = "session.(Service).StartLogin"
	markup, err := s.exchanger.AuthorizeMarkup(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return markup, nil
}

// CompleteLogin exchanges the callback's code for an identity, creates the
// session record and returns the raw token for the cookie. Nothing is stored
// when the exchange fails.
func (s *Service) CompleteLogin(ctx context.Context, code, state string) (Token, error) {
	const op = "session.(Service).CompleteLogin"
	ident, err := s.exchanger.Exchange(ctx, code, state)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	name := ident.Name
	if name == "" {
		name = "Author " + ident.Subject
	}
	sessionID, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate session id: %w", op, err)
	}
	token, err := NewToken()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	rec := &Record{
		SessionID: sessionID,
		AuthorID:  ident.Subject,
		Name:      name,
		ExpireAt:  now.Add(s.config.RefreshAfter),
		DestroyAt: now.Add(s.config.ExpireAfter),
	}
	if err := s.store.Put(ctx, HashToken(token), rec); err != nil {
		return "", fmt.Errorf("%s: unable to store session: %w", op, err)
	}
	s.logger.Info("session created",
		"sessionId", rec.SessionID,
		"author", rec.AuthorID,
		"name", rec.Name,
		"destroyAt", rec.DestroyAt,
	)
	return token, nil
}

// Verify looks the session up by its token's hash and applies the sliding
// expiration rules. It returns the session identity and, when the rotation
// deadline has passed, a replacement token the caller must hand back to the
// client; the pre-rotation token is invalid from that point on.
func (s *Service) Verify(ctx context.Context, token Token) (*Identity, Token, error) {
	const op = "session.(Service).Verify"
	if token == "" {
		return nil, "", fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	hash := HashToken(token)
	rec, err := s.store.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrNoSession)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if rec.Destroyed(now) {
		if err := s.store.Delete(ctx, hash); err != nil {
			s.logger.Error("unable to discard destroyed session", "sessionId", rec.SessionID, "error", err)
		}
		s.logger.Info("session destroyed", "sessionId", rec.SessionID, "author", rec.AuthorID)
		return nil, "", fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	ident := &Identity{
		SessionID: rec.SessionID,
		AuthorID:  rec.AuthorID,
		Name:      rec.Name,
	}
	if !rec.NeedsRotation(now) {
		return ident, "", nil
	}

	newToken, err := NewToken()
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	rotated := *rec
	rotated.ExpireAt = now.Add(s.config.RefreshAfter)
	rotated.DestroyAt = now.Add(s.config.ExpireAfter)
	if err := s.store.Put(ctx, HashToken(newToken), &rotated); err != nil {
		return nil, "", fmt.Errorf("%s: unable to store rotated session: %w", op, err)
	}
	// Single-use refresh: the pre-rotation hash must never verify again.
	if err := s.store.Delete(ctx, hash); err != nil {
		return nil, "", fmt.Errorf("%s: unable to discard pre-rotation session: %w", op, err)
	}
	s.logger.Info("session rotated",
		"sessionId", rotated.SessionID,
		"author", rotated.AuthorID,
		"destroyAt", rotated.DestroyAt,
	)
	return ident, newToken, nil
}

// Logout discards the session for a token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token Token) error {
	const op = "session.(Service).Logout"
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExpireAfter reports the configured hard expiry duration, which also bounds
// the session cookie's lifetime.
func (s *Service) ExpireAfter() time.Duration {
	return s.config.ExpireAfter
}

// Option defines a common functional options type
type Option func(interface{})

// serviceOptions is the set of available options for NewService
type serviceOptions struct {
	withLogger hclog.Logger
}

// getServiceOpts gets the defaults and applies the opt overrides passed in
func getServiceOpts(opt ...Option) serviceOptions {
	var opts serviceOptions
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// WithLogger provides an optional logger for the service
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*serviceOptions); ok {
			o.withLogger = l
		}
	}
}
