package server

import (
	"context"

	"github.com/anca-dev/anca-server/session"
)

// unexported, collision-proof context keys
type identityContextKey struct{}
type tokenContextKey struct{}

// IdentityFromContext extracts the verified session identity attached by
// RequireSession.
func IdentityFromContext(ctx context.Context) (*session.Identity, bool) {
	ident, ok := ctx.Value(identityContextKey{}).(*session.Identity)
	return ident, ok
}

// tokenFromContext extracts the currently valid session token attached by
// RequireSession. After a rotation this is the rotated token, not the one the
// request arrived with.
func tokenFromContext(ctx context.Context) (session.Token, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(session.Token)
	return token, ok
}

func withSession(ctx context.Context, ident *session.Identity, token session.Token) context.Context {
	ctx = context.WithValue(ctx, identityContextKey{}, ident)
	return context.WithValue(ctx, tokenContextKey{}, token)
}
