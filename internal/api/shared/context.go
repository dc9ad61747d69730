// Package shared holds response helpers and context keys used across
// API handlers and middleware.
package shared

import (
	"context"

	"taskpanel/internal/domain"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// PrincipalContextKey is the context key under which the
// authentication middleware stores the request's principal.
const PrincipalContextKey contextKey = "principal"

// PrincipalFromContext extracts the authenticated principal from the
// context. The second return is false when the request never passed
// the authentication middleware.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(PrincipalContextKey).(domain.Principal)
	return principal, ok
}
