// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"procura/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Email            string
	Password         string
	FullName         string
	Role             entity.Role
	OrganizationName string // Required for supplier and procurement officer roles.
}

// LoginInput defines the data required for an account to log in.
type LoginInput struct {
	Email    string
	Password string
}

// VerifyEmailInput carries the token from the verification link.
type VerifyEmailInput struct {
	Token string
}

// ResendVerificationInput identifies the account to re-send the link to.
type ResendVerificationInput struct {
	Email string
}

// ForgotPasswordInput identifies the account requesting a password reset.
type ForgotPasswordInput struct {
	Email string
}

// ResetPasswordInput carries the reset token and the replacement password.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ChangePasswordInput carries an authenticated password change.
type ChangePasswordInput struct {
	AccountID       uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// RefreshTokenInput carries the raw refresh token being exchanged.
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput carries the raw refresh token of the session being ended.
type LogoutInput struct {
	RefreshToken string
}

// UpdateProfileInput carries mutable profile fields.
type UpdateProfileInput struct {
	AccountID uuid.UUID
	FullName  string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created account's basic information
// together with its initial session credentials.
type RegisterOutput struct {
	Account      *entity.Account
	AccessToken  string
	RefreshToken string
}

// LoginOutput returns the generated tokens after a successful login. When the
// account has MFA enabled no tokens are issued and MFARequired is set; the
// client must complete the TOTP challenge to obtain credentials.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	Account      *entity.Account
	MFARequired  bool
}

// RefreshTokenOutput returns a fresh token pair. The presented refresh token
// is consumed: every exchange rotates the session credential.
type RefreshTokenOutput struct {
	AccessToken  string
	RefreshToken string
}

// AuthUsecase defines the interface for identity and session operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	VerifyEmail(ctx context.Context, input *VerifyEmailInput) error
	ResendVerification(ctx context.Context, input *ResendVerificationInput) error
	ForgotPassword(ctx context.Context, input *ForgotPasswordInput) error
	ResetPassword(ctx context.Context, input *ResetPasswordInput) error
	ChangePassword(ctx context.Context, input *ChangePasswordInput) error
	RefreshToken(ctx context.Context, input *RefreshTokenInput) (*RefreshTokenOutput, error)
	Logout(ctx context.Context, input *LogoutInput) error
	LogoutAllDevices(ctx context.Context, accountID uuid.UUID) error
	GetProfile(ctx context.Context, accountID uuid.UUID) (*entity.Account, error)
	UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*entity.Account, error)
	GetActiveSessions(ctx context.Context, accountID uuid.UUID) ([]*entity.RefreshToken, error)
	RevokeSession(ctx context.Context, accountID, tokenID uuid.UUID) error
}
