// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"procura/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for account persistence.
var (
	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when the unique email constraint is violated.
	ErrDuplicateEmail = errors.New("email already registered")
)

// AccountRepository defines the standard operations for account persistence.
// The application layer depends on this interface, not the concrete implementation.
type AccountRepository interface {
	// Create persists a new account. Returns ErrDuplicateEmail when the email
	// is already taken; the uniqueness is guaranteed by a storage constraint,
	// not only by an application-level check.
	Create(ctx context.Context, account *entity.Account) error

	// FindByID retrieves a single account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves a single account by its email address.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// FindByVerificationToken retrieves the account holding the given
	// email-verification token, regardless of expiry.
	FindByVerificationToken(ctx context.Context, token string) (*entity.Account, error)

	// FindByResetTokenHash retrieves the account holding the given hashed
	// password-reset token, regardless of expiry.
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*entity.Account, error)

	// Update persists all mutable fields of an existing account.
	Update(ctx context.Context, account *entity.Account) error

	// IncrementFailedLogins atomically increments the failed-login counter via
	// a single UPDATE expression and returns the new value. Two concurrent
	// failed attempts must both be counted.
	IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error)

	// SetLockout records the lockout deadline for an account.
	SetLockout(ctx context.Context, id uuid.UUID, until time.Time) error

	// ClearLoginFailures resets the failure counter and lockout in one update.
	ClearLoginFailures(ctx context.Context, id uuid.UUID, lastLoginAt time.Time) error
}
