// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account is the core identity entity, representing a single person who can
// authenticate against the portal. Credential material is stored only in
// one-way hashed form; the raw password, reset token and refresh tokens never
// reach the database.
type Account struct {
	ID             uuid.UUID  // The unique identifier for the account.
	Email          string     // Login identifier; unique across the system.
	FullName       string     // Display name of the account holder.
	PasswordHash   string     // bcrypt hash of the password.
	Role           Role       // Exactly one role from the closed set.
	OrganizationID *uuid.UUID // Optional link to the legal entity the account acts for.

	IsActive      bool // Deactivated accounts cannot log in or refresh sessions.
	EmailVerified bool // Set once the verification token has been consumed.

	MFAEnabled bool   // True after the first successful TOTP confirmation.
	MFASecret  string // Base32 TOTP shared secret; present from setup until disable.

	FailedLoginAttempts int        // Consecutive failed password checks since the last success.
	LockedUntil         *time.Time // Account rejects logins until this instant when set.
	LastLoginAt         *time.Time // Timestamp of the most recent successful login.

	VerificationToken     string     // Email verification token; cleared on consumption.
	VerificationExpiresAt *time.Time // Expiry of the verification token.
	ResetTokenHash        string     // SHA-256 hash of the outstanding password-reset token.
	ResetExpiresAt        *time.Time // Expiry of the password-reset token.

	CreatedAt time.Time // Timestamp of registration.
	UpdatedAt time.Time // Timestamp of the last modification.
}

// IsLocked reports whether the account is under a login lockout at the given instant.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// BelongsTo reports whether the account acts for the given organization.
func (a *Account) BelongsTo(orgID uuid.UUID) bool {
	return a.OrganizationID != nil && *a.OrganizationID == orgID
}
