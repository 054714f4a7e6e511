package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procura/config"
)

func newTestTOTPService() *totpService {
	cfg := &config.Config{MFA: &config.MFAConfig{Issuer: "procura-test", Period: 30, Skew: 1}}

	return NewTOTPService(cfg).(*totpService)
}

func generateCodeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	return code
}

func TestTOTPService_GenerateKey(t *testing.T) {
	svc := newTestTOTPService()

	key, err := svc.GenerateKey("supplier@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, key.Secret)
	assert.Contains(t, key.URI, "otpauth://totp/")
	assert.Contains(t, key.URI, "procura-test")
	assert.Contains(t, key.URI, "supplier%40example.com")
}

func TestTOTPService_VerifyCurrentCode(t *testing.T) {
	svc := newTestTOTPService()

	key, err := svc.GenerateKey("supplier@example.com")
	require.NoError(t, err)

	now := time.Now()
	code := generateCodeAt(t, key.Secret, now)
	assert.True(t, svc.Verify(key.Secret, code, now))
}

func TestTOTPService_VerifySkewWindow(t *testing.T) {
	svc := newTestTOTPService()

	key, err := svc.GenerateKey("supplier@example.com")
	require.NoError(t, err)

	now := time.Unix(1700000015, 0) // Middle of a 30-second step.

	t.Run("code from previous step still accepted", func(t *testing.T) {
		code := generateCodeAt(t, key.Secret, now.Add(-29*time.Second))
		assert.True(t, svc.Verify(key.Secret, code, now))
	})

	t.Run("code from next step still accepted", func(t *testing.T) {
		code := generateCodeAt(t, key.Secret, now.Add(29*time.Second))
		assert.True(t, svc.Verify(key.Secret, code, now))
	})

	t.Run("code two steps old rejected", func(t *testing.T) {
		code := generateCodeAt(t, key.Secret, now.Add(-61*time.Second))
		assert.False(t, svc.Verify(key.Secret, code, now))
	})
}

func TestTOTPService_RejectsGarbage(t *testing.T) {
	svc := newTestTOTPService()

	key, err := svc.GenerateKey("supplier@example.com")
	require.NoError(t, err)

	assert.False(t, svc.Verify(key.Secret, "000000", time.Now().Add(12*time.Hour)))
	assert.False(t, svc.Verify(key.Secret, "not-a-code", time.Now()))
	assert.False(t, svc.Verify("", "123456", time.Now()))
}
