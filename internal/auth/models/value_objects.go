package models

import (
	"net/mail"
	"regexp"
	"strings"

	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/validation"
)

const (
	// MinResetTokenLength rejects obviously truncated reset links early.
	MinResetTokenLength = 40
	maxEmailLength      = 255

	msgInvalidEmail      = "Please enter a valid email address"
	msgInvalidResetToken = "Reset link has expired or is invalid. Please request a new one."
)

var resetTokenPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Email is a trimmed, lower-cased address.
type Email string

// NewEmail normalizes raw and rejects anything that is not a bare address.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" || len(normalized) > maxEmailLength {
		return "", dErrors.New(dErrors.CodeValidation, msgInvalidEmail)
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized || addr.Name != "" {
		return "", dErrors.New(dErrors.CodeValidation, msgInvalidEmail)
	}
	return Email(normalized), nil
}

func (e Email) String() string {
	return string(e)
}

// Password is a plaintext password that satisfies the strength rules.
// It is never logged or serialized.
type Password string

// NewPassword returns the first strength rule raw breaks as a validation error.
func NewPassword(raw string) (Password, error) {
	if msg := validation.PasswordViolation(raw); msg != "" {
		return "", dErrors.New(dErrors.CodeValidation, msg)
	}
	return Password(raw), nil
}

func (p Password) String() string {
	return "[REDACTED]"
}

// Plain returns the raw password for hashing or provider calls.
func (p Password) Plain() string {
	return string(p)
}

// ResetToken is an opaque password reset token taken from a reset link.
type ResetToken string

// NewResetToken checks length and URL-safe charset. Whether the token is
// still live is the provider's call.
func NewResetToken(raw string) (ResetToken, error) {
	token := strings.TrimSpace(raw)
	if len(token) < MinResetTokenLength || !resetTokenPattern.MatchString(token) {
		return "", dErrors.New(dErrors.CodeInvalidToken, msgInvalidResetToken)
	}
	return ResetToken(token), nil
}

func (t ResetToken) String() string {
	return string(t)
}
