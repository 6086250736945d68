package api

import (
	"context"
	"errors"

	"github.com/tributolabs/fiscalis/internal/auth"
)

// claimsContextKey is the context key for the authenticated caller's claims.
type claimsContextKey struct{}

// ErrNoClaimsInContext indicates no claims were found in the context.
var ErrNoClaimsInContext = errors.New("no claims in context")

// WithClaims returns a new context with the token claims attached.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts the claims from the context.
// Returns ErrNoClaimsInContext if not present or nil.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey{}).(*auth.Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaimsInContext
	}
	return claims, nil
}

// MustClaimsFromContext extracts the claims or panics.
// Use only on routes behind the Authenticator middleware.
func MustClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		panic("claims not in context: middleware misconfiguration")
	}
	return claims
}
