package oidc

import (
	"errors"
)

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNilParameter        = errors.New("nil parameter")
	ErrIDGeneratorFailed   = errors.New("id generation failed")
	ErrNoAuthorizeEndpoint = errors.New("no authorizeUri")
	ErrNoTokenEndpoint     = errors.New("no tokenUri")
	ErrNoJWKSEndpoint      = errors.New("no jwks endpoint")
	ErrMissingCode         = errors.New("authorization code is missing")
	ErrMissingIDToken      = errors.New("id_token is missing")
	ErrMissingClaim        = errors.New("missing claim")
	ErrDiscoveryFailed     = errors.New("autodiscovery failed")
	ErrUnknownState        = errors.New("unknown authorization state")
	ErrInvalidNonce        = errors.New("invalid nonce")
)
