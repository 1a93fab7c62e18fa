package oidc

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// DefaultSubjectClaim is the identity payload field holding the stable
// subject id when no other claim name is configured.
const DefaultSubjectClaim = "sub"

// DefaultNameClaim is the identity payload field holding the display name
// when no other claim name is configured.
const DefaultNameClaim = "name"

// ClientSecret is the relying party secret
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the configuration for the provider side of the
// authorization code flow.
//
// Endpoint resolution: AutodiscoveryURL wins when set and is fetched fresh on
// every call. AuthorizeURL, TokenURL and ResourceURL are used only when
// AutodiscoveryURL is empty.
type Config struct {
	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the relying party secret
	ClientSecret ClientSecret

	// AutodiscoveryURL is the full URL of the provider's discovery document.
	AutodiscoveryURL string

	// AuthorizeURL is the provider's authorization endpoint, used only when
	// AutodiscoveryURL is empty.
	AuthorizeURL string

	// TokenURL is the provider's token endpoint, used only when
	// AutodiscoveryURL is empty.
	TokenURL string

	// ResourceURL is an optional userinfo/resource endpoint queried with the
	// access token after the code exchange. Used only when AutodiscoveryURL
	// is empty. When no resource endpoint resolves at all, the identity
	// payload falls back to the decoded id_token claims.
	ResourceURL string

	// RedirectURL must match the redirect registered with the provider.
	RedirectURL string

	// Scope is the space-separated scope string sent in the authorize request.
	Scope string

	// SubjectClaim is the identity payload field holding the stable subject
	// id. Defaults to DefaultSubjectClaim.
	SubjectClaim string

	// NameClaim is the identity payload field holding the display name.
	// Defaults to DefaultNameClaim, falling back to the subject when the
	// payload has no such field.
	NameClaim string

	// VerifyIDTokens enables signature and nonce verification of id_tokens
	// against the provider's published keys before trusting their claims.
	// Off by default: the fallback identity path decodes the id_token
	// without verification.
	VerifyIDTokens bool

	// EnforceState retains issued state values server-side and rejects
	// callbacks whose state was never issued or has expired. Off by default.
	EnforceState bool
}

// Validate the configuration. Endpoint presence is deliberately not checked
// here: whether a usable authorize or token endpoint resolves is a
// per-request concern (autodiscovery happens per call).
func (c *Config) Validate() error {
	const op = "oidc.(Config).Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("client secret is empty: %w", ErrInvalidParameter))
	}
	if c.RedirectURL == "" {
		result = multierror.Append(result, fmt.Errorf("redirect URL is empty: %w", ErrInvalidParameter))
	}
	for _, u := range []string{c.AutodiscoveryURL, c.AuthorizeURL, c.TokenURL, c.ResourceURL} {
		if u == "" {
			continue
		}
		parsed, err := url.Parse(u)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("url %s is invalid: %w", u, err))
			continue
		}
		if parsed.Scheme != "https" && parsed.Scheme != "http" {
			result = multierror.Append(result, fmt.Errorf("url %s scheme is not http or https: %w", u, ErrInvalidParameter))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return nil
}

// scopes splits the configured scope string for use with the oauth2 package,
// which re-joins them with spaces when building the authorize URL.
func (c *Config) scopes() []string {
	return strings.Fields(c.Scope)
}

// subjectClaim returns the configured subject claim name or the default.
func (c *Config) subjectClaim() string {
	if c.SubjectClaim != "" {
		return c.SubjectClaim
	}
	return DefaultSubjectClaim
}

// nameClaim returns the configured name claim name or the default.
func (c *Config) nameClaim() string {
	if c.NameClaim != "" {
		return c.NameClaim
	}
	return DefaultNameClaim
}
