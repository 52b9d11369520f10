package auth

import (
	"context"

	"auth-serverless/internal/token"
)

type identityKey struct{}

// WithIdentity is called by a guard after the token checked out.
func WithIdentity(ctx context.Context, id token.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom reports the identity a guard attached to this request, if any.
func IdentityFrom(ctx context.Context) (token.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(token.Identity)
	return id, ok
}
