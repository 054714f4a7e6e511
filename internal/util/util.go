package util

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// DefaultTokenTTL is used when a TTL string cannot be parsed.
const DefaultTokenTTL = 10 * time.Minute

// GenerateToken returns n random bytes, hex encoded.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(buf), nil
}

// GenerateRegistrationNumber returns a new organization registration number of
// the form "ORG-" followed by twelve upper-case hex characters.
func GenerateRegistrationNumber() (string, error) {
	token, err := GenerateToken(6)
	if err != nil {
		return "", err
	}

	return "ORG-" + strings.ToUpper(token), nil
}

// ParseTTL parses a compact duration string of the form "<number><unit>" where
// unit is one of s, m, h or d (e.g. "10m", "24h", "7d"). Malformed input falls
// back to DefaultTokenTTL.
func ParseTTL(s string) time.Duration {
	if len(s) < 2 {
		return DefaultTokenTTL
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return DefaultTokenTTL
	}

	switch unit {
	case 's':
		return time.Duration(n) * time.Second
	case 'm':
		return time.Duration(n) * time.Minute
	case 'h':
		return time.Duration(n) * time.Hour
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	default:
		return DefaultTokenTTL
	}
}

// IsStrongPassword checks that a password is at least eight characters and
// mixes upper case, lower case and digits.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	return hasUpper && hasLower && hasDigit
}
