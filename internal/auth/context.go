package auth

import (
	"context"

	"github.com/bookshelf/bookshelf/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity adds the resolved identity to the context.
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if not present.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}

// SubjectIDFromContext returns the authenticated account id, or 0 when the
// request carries no identity.
func SubjectIDFromContext(ctx context.Context) int64 {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return 0
	}
	return identity.SubjectID
}
