package httpapi

import (
	"context"

	"bell-registry/domain"
)

// Identity is the resolved caller, placed in the request context by the
// authentication middleware.
type Identity struct {
	UserID string
	Role   domain.Role
}

type contextKey struct{}

func withIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}
