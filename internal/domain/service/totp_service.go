package service

import "time"

// TOTPKey is the result of provisioning a new time-based one-time-password secret.
type TOTPKey struct {
	Secret string // Base32 shared secret for manual entry.
	URI    string // otpauth:// provisioning URI for QR rendering.
}

// TOTPService defines the interface for multi-factor shared-secret
// provisioning and time-based code verification.
type TOTPService interface {
	// GenerateKey creates a fresh shared secret bound to the given account email.
	GenerateKey(accountEmail string) (*TOTPKey, error)

	// Verify checks a submitted code against the secret at the given instant,
	// accepting one time step of clock skew in either direction.
	Verify(secret, code string, at time.Time) bool
}
