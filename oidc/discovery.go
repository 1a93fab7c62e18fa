package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// endpoints holds the provider URLs resolved for a single request. A zero
// field means the endpoint could not be resolved; callers decide which
// endpoints the operation at hand actually requires.
type endpoints struct {
	issuer       string
	authorizeURL string
	tokenURL     string
	userInfoURL  string
	jwksURL      string
}

// discoveryDocument is the subset of the provider's autodiscovery response
// this package cares about.
type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// resolveEndpoints resolves the provider endpoints for one request. When an
// autodiscovery URL is configured the document is fetched fresh on every
// call; discovery results are never cached. A discovery response missing
// either the authorization or the token endpoint is treated as failed.
// Without autodiscovery the explicitly configured URLs are returned.
func (c *Client) resolveEndpoints(ctx context.Context) (*endpoints, error) {
	const op = "oidc.(Client).resolveEndpoints"
	if c.config.AutodiscoveryURL == "" {
		return &endpoints{
			authorizeURL: c.config.AuthorizeURL,
			tokenURL:     c.config.TokenURL,
			userInfoURL:  c.config.ResourceURL,
		}, nil
	}

	doc, err := c.fetchDiscovery(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return nil, fmt.Errorf("%s: document at %s has no usable endpoints: %w",
			op, c.config.AutodiscoveryURL, ErrDiscoveryFailed)
	}
	return &endpoints{
		issuer:       doc.Issuer,
		authorizeURL: doc.AuthorizationEndpoint,
		tokenURL:     doc.TokenEndpoint,
		userInfoURL:  doc.UserInfoEndpoint,
		jwksURL:      doc.JWKSURI,
	}, nil
}

// fetchDiscovery performs the GET for the autodiscovery document.
func (c *Client) fetchDiscovery(ctx context.Context) (*discoveryDocument, error) {
	const op = "oidc.(Client).fetchDiscovery"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.AutodiscoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create discovery request: %w", op, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: discovery request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read discovery response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: discovery returned %s: %w", op, resp.Status, ErrDiscoveryFailed)
	}
	var doc discoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%s: unable to decode discovery document: %w", op, err)
	}
	return &doc, nil
}
