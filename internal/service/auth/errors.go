// Package auth provides password verification and JWT token services.
package auth

import "errors"

// Authentication errors.
var (
	// ErrInvalidCredentials is returned when a username/password pair
	// does not match a registered account. Callers must not reveal
	// which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a token fails signature or
	// structural validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")
)
