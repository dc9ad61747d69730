package auth

import (
	"context"

	"taskpanel/internal/domain"
)

// JWTService defines operations for managing bearer authentication
// tokens. Tokens are stateless: logout is a client-side discard.
type JWTService interface {
	// GenerateToken creates a signed token carrying the principal's
	// username and role.
	GenerateToken(ctx context.Context, principal domain.Principal) (string, error)

	// ValidateToken validates the token string and returns the
	// principal it was issued for. Returns ErrExpiredToken or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (domain.Principal, error)
}
