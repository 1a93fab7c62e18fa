package oidc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	goidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// DefaultRequestTimeout bounds every outbound call to the provider.
const DefaultRequestTimeout = 10 * time.Second

// Identity is the subject and display name extracted from the provider's
// identity payload. Name is empty when the payload carries no name claim;
// callers derive their own display fallback from the subject.
type Identity struct {
	Subject string
	Name    string
}

// Client talks to the external identity provider: it renders the authorize
// redirect markup and exchanges authorization codes for an Identity.
type Client struct {
	config   *Config
	client   *http.Client
	logger   hclog.Logger
	attempts *attemptCache
}

// NewClient creates a Client for the provider configured in c.
// Supported options: WithLogger, WithHTTPClient
func NewClient(c *Config, opt ...Option) (*Client, error) {
	const op = "oidc.NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: config is invalid: %w", op, err)
	}
	opts := getClientOpts(opt...)
	client := opts.withHTTPClient
	if client == nil {
		client = &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   DefaultRequestTimeout,
		}
	}
	logger := opts.withLogger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	cl := &Client{
		config: c,
		client: client,
		logger: logger,
	}
	if c.EnforceState {
		cl.attempts = newAttemptCache()
	}
	return cl, nil
}

// redirectMarkup is the document returned to the browser on login start. The
// navigation to the provider happens client-side via meta refresh, not via an
// HTTP 302.
var redirectMarkup = template.Must(template.New("authorize").Parse(`<!DOCTYPE html>
<html>
<head>
<meta http-equiv="refresh" content="0; url={{.}}">
<title>Redirecting...</title>
</head>
<body>
<p>Redirecting to the identity provider, <a href="{{.}}">continue</a> if nothing happens.</p>
</body>
</html>
`))

// AuthorizeMarkup resolves the authorize endpoint and returns an HTML
// document that immediately sends the browser to the provider's
// authorization URL, carrying response_type=code, the client id, the
// redirect URL, the configured scopes and freshly generated state and nonce
// values.
func (c *Client) AuthorizeMarkup(ctx context.Context) (string, error) {
	const op = "oidc.(Client).AuthorizeMarkup"
	eps, err := c.resolveEndpoints(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if eps.authorizeURL == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoAuthorizeEndpoint)
	}

	state, err := NewID(WithPrefix("st"))
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate state: %w", op, err)
	}
	nonce, err := NewID(WithPrefix("n"))
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate nonce: %w", op, err)
	}

	oauth2Config := oauth2.Config{
		ClientID:    c.config.ClientID,
		RedirectURL: c.config.RedirectURL,
		Endpoint:    oauth2.Endpoint{AuthURL: eps.authorizeURL},
		Scopes:      c.config.scopes(),
	}
	authURL := oauth2Config.AuthCodeURL(state, goidc.Nonce(nonce))

	if c.attempts != nil {
		c.attempts.Add(&attempt{
			state:      state,
			nonce:      nonce,
			expiration: time.Now().Add(DefaultAttemptExpiry),
		})
	}
	c.logger.Debug("authorize redirect issued", "endpoint", eps.authorizeURL)

	var buf bytes.Buffer
	if err := redirectMarkup.Execute(&buf, authURL); err != nil {
		return "", fmt.Errorf("%s: unable to render redirect markup: %w", op, err)
	}
	return buf.String(), nil
}

// Exchange posts the authorization code to the provider's token endpoint and
// extracts an Identity from the resulting identity payload. The payload comes
// from the resource/userinfo endpoint when one resolves, otherwise from the
// returned id_token's claims.
//
// A missing code fails before any network call is attempted.
func (c *Client) Exchange(ctx context.Context, code, state string) (*Identity, error) {
	const op = "oidc.(Client).Exchange"
	if code == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCode)
	}

	var nonce string
	if c.attempts != nil {
		a, ok := c.attempts.Take(state)
		if !ok {
			return nil, fmt.Errorf("%s: state was not issued or has expired: %w", op, ErrUnknownState)
		}
		nonce = a.nonce
	}

	eps, err := c.resolveEndpoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if eps.tokenURL == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoTokenEndpoint)
	}

	oidcCtx := goidc.ClientContext(ctx, c.client)
	oauth2Config := oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: string(c.config.ClientSecret),
		RedirectURL:  c.config.RedirectURL,
		Scopes:       c.config.scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  eps.authorizeURL,
			TokenURL: eps.tokenURL,
			// client_id and client_secret travel in the form body, the same
			// wire format the provider registration expects.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	oauth2Token, err := oauth2Config.Exchange(oidcCtx, code, oauth2.SetAuthURLParam("state", state))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to exchange auth code with provider: %w", op, err)
	}

	payload := map[string]interface{}{}
	switch {
	case eps.userInfoURL != "":
		if err := c.fetchUserInfo(oidcCtx, eps, oauth2Token, &payload); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		raw, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			return nil, fmt.Errorf("%s: id_token is missing from auth code exchange: %w", op, ErrMissingIDToken)
		}
		idToken := IDToken(raw)
		if c.config.VerifyIDTokens {
			if err := c.verifyIDToken(oidcCtx, eps, idToken, nonce, &payload); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		} else if err := idToken.Claims(&payload); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return c.identityFromPayload(payload)
}

// fetchUserInfo gets the identity payload from the resolved userinfo/resource
// endpoint using the access token as a bearer credential.
func (c *Client) fetchUserInfo(ctx context.Context, eps *endpoints, t *oauth2.Token, claims interface{}) error {
	const op = "oidc.(Client).fetchUserInfo"
	pc := goidc.ProviderConfig{
		IssuerURL:   eps.issuer,
		AuthURL:     eps.authorizeURL,
		TokenURL:    eps.tokenURL,
		UserInfoURL: eps.userInfoURL,
		JWKSURL:     eps.jwksURL,
	}
	info, err := pc.NewProvider(ctx).UserInfo(ctx, oauth2.StaticTokenSource(t))
	if err != nil {
		return fmt.Errorf("%s: provider userinfo request failed: %w", op, err)
	}
	if err := info.Claims(claims); err != nil {
		return fmt.Errorf("%s: unable to decode userinfo claims: %w", op, err)
	}
	return nil
}

// verifyIDToken is the hardened, opt-in identity path: it verifies the
// id_token signature against the provider's published keys and checks the
// nonce before releasing the claims.
func (c *Client) verifyIDToken(ctx context.Context, eps *endpoints, t IDToken, nonce string, claims interface{}) error {
	const op = "oidc.(Client).verifyIDToken"
	if eps.jwksURL == "" {
		return fmt.Errorf("%s: no jwks endpoint resolved: %w", op, ErrNoJWKSEndpoint)
	}
	pc := goidc.ProviderConfig{
		IssuerURL:   eps.issuer,
		AuthURL:     eps.authorizeURL,
		TokenURL:    eps.tokenURL,
		UserInfoURL: eps.userInfoURL,
		JWKSURL:     eps.jwksURL,
	}
	verifier := pc.NewProvider(ctx).Verifier(&goidc.Config{
		ClientID:        c.config.ClientID,
		SkipIssuerCheck: eps.issuer == "",
		SupportedSigningAlgs: []string{
			goidc.RS256, goidc.RS384, goidc.RS512,
			goidc.ES256, goidc.ES384, goidc.ES512,
			goidc.PS256, goidc.PS384, goidc.PS512,
		},
	})
	verified, err := verifier.Verify(ctx, string(t))
	if err != nil {
		return fmt.Errorf("%s: invalid id_token signature: %w", op, err)
	}
	if nonce != "" && verified.Nonce != nonce {
		return fmt.Errorf("%s: invalid id_token nonce: %w", op, ErrInvalidNonce)
	}
	if err := verified.Claims(claims); err != nil {
		return fmt.Errorf("%s: unable to decode id_token claims: %w", op, err)
	}
	return nil
}

// identityFromPayload extracts the subject and display name from an identity
// payload using the configured claim names.
func (c *Client) identityFromPayload(payload map[string]interface{}) (*Identity, error) {
	const op = "oidc.(Client).identityFromPayload"
	subjectClaim := c.config.subjectClaim()
	subject, ok := claimString(payload, subjectClaim)
	if !ok {
		return nil, fmt.Errorf("%s: Missing '%s' claim in payload: %w", op, subjectClaim, ErrMissingClaim)
	}
	name, _ := claimString(payload, c.config.nameClaim())
	return &Identity{
		Subject: subject,
		Name:    name,
	}, nil
}

// claimString reads a payload field by its configured name, accepting the
// string and numeric forms providers emit for subject ids.
func claimString(payload map[string]interface{}, claim string) (string, bool) {
	v, ok := payload[claim]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// clientOptions is the set of available options for NewClient
type clientOptions struct {
	withLogger     hclog.Logger
	withHTTPClient *http.Client
}

// clientDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func clientDefaults() clientOptions {
	return clientOptions{}
}

// getClientOpts gets the defaults and applies the opt overrides passed in
func getClientOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the client
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withLogger = l
		}
	}
}

// WithHTTPClient provides an optional http client, replacing the default
// pooled client and its request timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withHTTPClient = client
		}
	}
}
