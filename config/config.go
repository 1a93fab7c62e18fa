// Package config maps the recognized environment options onto the
// authentication subsystem's component configs.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/anca-dev/anca-server/oidc"
	"github.com/anca-dev/anca-server/server"
	"github.com/anca-dev/anca-server/session"
)

// Config is the environment-driven configuration surface.
type Config struct {
	Port         int    `env:"PORT" envDefault:"8990"`
	InstanceName string `env:"INSTANCE_NAME" envDefault:"Anca"`
	WebURI       string `env:"WEB_URI" envDefault:"/"`

	// RedisURL switches the session store from in-memory to Redis when set.
	RedisURL string `env:"REDIS_URL"`

	OIDCClientID         string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret     string `env:"OIDC_CLIENT_SECRET"`
	OIDCAutodiscoveryURI string `env:"OIDC_AUTODISCOVERY_URI"`
	OIDCAuthorizeURI     string `env:"OIDC_AUTHORIZE_URI"`
	OIDCTokenURI         string `env:"OIDC_TOKEN_URI"`
	OIDCResourceURI      string `env:"OIDC_RESOURCE_URI"`
	OIDCRedirectURI      string `env:"OIDC_REDIRECT_URI"`
	OIDCScope            string `env:"OIDC_SCOPE" envDefault:"openid profile"`
	OIDCSubjectClaim     string `env:"OIDC_SUBJECT_CLAIM" envDefault:"sub"`
	OIDCNameClaim        string `env:"OIDC_NAME_CLAIM" envDefault:"name"`
	OIDCVerifyIDTokens   bool   `env:"OIDC_VERIFY_ID_TOKENS" envDefault:"false"`
	OIDCEnforceState     bool   `env:"OIDC_ENFORCE_STATE" envDefault:"false"`

	// Session durations in seconds: hard destroy deadline and sliding
	// rotation deadline.
	SessionExpireTime  int `env:"SESSION_EXPIRE_TIME" envDefault:"86400"`
	SessionRefreshTime int `env:"SESSION_REFRESH_TIME" envDefault:"3600"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	const op = "config.Load"
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// OIDC returns the exchange client configuration.
func (c Config) OIDC() *oidc.Config {
	return &oidc.Config{
		ClientID:         c.OIDCClientID,
		ClientSecret:     oidc.ClientSecret(c.OIDCClientSecret),
		AutodiscoveryURL: c.OIDCAutodiscoveryURI,
		AuthorizeURL:     c.OIDCAuthorizeURI,
		TokenURL:         c.OIDCTokenURI,
		ResourceURL:      c.OIDCResourceURI,
		RedirectURL:      c.OIDCRedirectURI,
		Scope:            c.OIDCScope,
		SubjectClaim:     c.OIDCSubjectClaim,
		NameClaim:        c.OIDCNameClaim,
		VerifyIDTokens:   c.OIDCVerifyIDTokens,
		EnforceState:     c.OIDCEnforceState,
	}
}

// Session returns the session lifecycle configuration.
func (c Config) Session() session.Config {
	return session.Config{
		RefreshAfter: time.Duration(c.SessionRefreshTime) * time.Second,
		ExpireAfter:  time.Duration(c.SessionExpireTime) * time.Second,
	}
}

// Server returns the HTTP boundary configuration.
func (c Config) Server() server.Config {
	return server.Config{
		WebURI:       c.WebURI,
		InstanceName: c.InstanceName,
	}
}
