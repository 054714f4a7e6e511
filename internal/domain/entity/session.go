package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents a long-lived, authorized session. It is used to
// obtain a new access token after the old one expires, without requiring
// credentials. Tokens are rotated on every use: the presented token is deleted
// and a successor persisted in the same transaction.
type RefreshToken struct {
	ID        uuid.UUID // The unique ID for this specific refresh token record.
	AccountID uuid.UUID // Links this session to the Account it belongs to.
	TokenHash string    // SHA-256 hash of the raw refresh token for secure comparison.
	ExpiresAt time.Time // The exact time when this refresh token becomes invalid.
	CreatedAt time.Time // Timestamp of when this session was created.
}
