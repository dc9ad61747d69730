package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskpanel/internal/domain"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA256
// signing.
type hmacJWTService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	timeFunc      func() time.Time // injectable for testing
	clockSkew     time.Duration
}

// jwtCustomClaims defines the claims carried by panel tokens.
type jwtCustomClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a JWT service using HMAC-SHA256 signing.
func NewJWTService(secret string, tokenLifetime time.Duration) (JWTService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: tokenLifetime,
		timeFunc:      time.Now,
		clockSkew:     2 * time.Minute,
	}, nil
}

// GenerateToken creates a signed token for the principal.
func (s *hmacJWTService) GenerateToken(ctx context.Context, principal domain.Principal) (string, error) {
	now := s.timeFunc()

	claims := jwtCustomClaims{
		Username: principal.Username,
		Role:     string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifetime)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a token and extracts the principal.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (domain.Principal, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(s.timeFunc),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, ErrExpiredToken
		}
		return domain.Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	principal := domain.Principal{
		Username: claims.Username,
		Role:     domain.Role(claims.Role),
	}
	if principal.Username == "" || !principal.Role.Valid() {
		return domain.Principal{}, ErrInvalidToken
	}
	return principal, nil
}
