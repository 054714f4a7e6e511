package usecase

import (
	"context"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// ConfirmMFASetupInput proves possession of the freshly provisioned secret.
// Used only during enrollment, never for login challenges.
type ConfirmMFASetupInput struct {
	AccountID uuid.UUID
	Code      string
}

// VerifyMFALoginInput completes a pending MFA login challenge.
type VerifyMFALoginInput struct {
	Email    string
	Password string
	Code     string
}

// DisableMFAInput turns multi-factor authentication off again. The current
// password and a valid code are both required.
type DisableMFAInput struct {
	AccountID uuid.UUID
	Password  string
	Code      string
}

// --- Output DTOs ---

// SetupMFAOutput returns the provisioning material for the authenticator app.
// The secret is not active until a code has been confirmed.
type SetupMFAOutput struct {
	Secret string
	URI    string
	QRCode []byte // PNG rendering of the provisioning URI.
}

// MFAUsecase defines the interface for multi-factor authentication operations.
type MFAUsecase interface {
	// SetupMFA provisions a new TOTP secret for the account and returns the
	// provisioning URI and QR code. MFA stays disabled until ConfirmSetup.
	SetupMFA(ctx context.Context, accountID uuid.UUID) (*SetupMFAOutput, error)

	// ConfirmSetup activates MFA after the account holder proves they hold the
	// secret by submitting a valid code.
	ConfirmSetup(ctx context.Context, input *ConfirmMFASetupInput) error

	// VerifyLogin completes a login for an MFA-enabled account by checking
	// password and TOTP code together, then issuing session credentials.
	VerifyLogin(ctx context.Context, input *VerifyMFALoginInput) (*LoginOutput, error)

	// DisableMFA removes the shared secret after re-authentication.
	DisableMFA(ctx context.Context, input *DisableMFAInput) error
}
