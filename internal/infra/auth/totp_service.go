// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"procura/config"
	"procura/internal/domain/service"
)

const (
	defaultIssuer = "procura"
	defaultPeriod = 30
	defaultSkew   = 1
)

// totpService implements TOTPService on top of RFC 6238 time-based codes.
type totpService struct {
	issuer string
	period uint
	skew   uint
}

// NewTOTPService is the constructor for totpService.
func NewTOTPService(cfg *config.Config) service.TOTPService {
	svc := &totpService{
		issuer: defaultIssuer,
		period: defaultPeriod,
		skew:   defaultSkew,
	}
	if cfg.MFA != nil {
		if cfg.MFA.Issuer != "" {
			svc.issuer = cfg.MFA.Issuer
		}
		if cfg.MFA.Period > 0 {
			svc.period = cfg.MFA.Period
		}
		svc.skew = cfg.MFA.Skew
	}

	return svc
}

// GenerateKey creates a fresh shared secret bound to the given account email.
func (s *totpService) GenerateKey(accountEmail string) (*service.TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountEmail,
		Period:      s.period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate totp key")
	}

	return &service.TOTPKey{
		Secret: key.Secret(),
		URI:    key.URL(),
	}, nil
}

// Verify checks a submitted code against the secret at the given instant. The
// configured skew tolerates clock drift between server and authenticator app.
func (s *totpService) Verify(secret, code string, at time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    s.period,
		Skew:      s.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})

	return err == nil && valid
}
