package util

import (
	"testing"
	"time"
)

func TestParseTTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected time.Duration
	}{
		{name: "seconds", input: "30s", expected: 30 * time.Second},
		{name: "minutes", input: "10m", expected: 10 * time.Minute},
		{name: "hours", input: "24h", expected: 24 * time.Hour},
		{name: "days", input: "7d", expected: 7 * 24 * time.Hour},
		{name: "empty falls back to default", input: "", expected: DefaultTokenTTL},
		{name: "missing unit falls back to default", input: "15", expected: DefaultTokenTTL},
		{name: "unknown unit falls back to default", input: "15w", expected: DefaultTokenTTL},
		{name: "non numeric falls back to default", input: "abcm", expected: DefaultTokenTTL},
		{name: "negative falls back to default", input: "-5m", expected: DefaultTokenTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ParseTTL(tt.input); got != tt.expected {
				t.Fatalf("ParseTTL(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("GenerateToken(32) produced %d hex chars, want 64", len(first))
	}

	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if first == second {
		t.Fatal("GenerateToken produced the same token twice")
	}
}

func TestIsStrongPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{name: "mixed case with digits", password: "Str0ngPass", expected: true},
		{name: "too short", password: "Ab1", expected: false},
		{name: "no upper case", password: "weakpass1", expected: false},
		{name: "no digit", password: "WeakPassword", expected: false},
		{name: "no lower case", password: "WEAKPASS1", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsStrongPassword(tt.password); got != tt.expected {
				t.Fatalf("IsStrongPassword(%q) = %v, want %v", tt.password, got, tt.expected)
			}
		})
	}
}
