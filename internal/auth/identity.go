package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller resolved from a backend-issued token.
// It is added to the request context after successful verification.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type contextKey int

const (
	identityContextKey contextKey = iota
)

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the authenticated identity from the request context.
// Returns nil if no identity is present (unauthenticated request).
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey).(*Identity)
	return id
}
