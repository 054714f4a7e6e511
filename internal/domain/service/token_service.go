package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the custom claims carried by the signed tokens.
type Claims struct {
	AccountID uuid.UUID
	Role      string
	Type      string // "access" or "refresh"
	jwt.RegisteredClaims
}

// TokenService defines the interface for generating and validating session
// credentials. This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GenerateTokens creates a new access token and refresh token for an account.
	GenerateTokens(accountID uuid.UUID, role string) (accessToken string, refreshToken string, err error)

	// ValidateAccessToken checks the validity of an access token string.
	ValidateAccessToken(tokenString string) (*Claims, error)

	// ValidateRefreshToken checks the validity of a refresh token string.
	ValidateRefreshToken(tokenString string) (*Claims, error)

	// HashToken returns the hash under which a raw token is persisted, so a
	// leaked database does not yield usable tokens.
	HashToken(token string) string

	// GetAccessTokenDuration returns the configured lifetime of access tokens.
	GetAccessTokenDuration() time.Duration

	// GetRefreshTokenDuration returns the configured lifetime of refresh tokens.
	GetRefreshTokenDuration() time.Duration
}
