// Package email builds and delivers account emails. Development builds log
// the message instead of sending it.
package email

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	"authgate/pkg/platform/privacy"
	"authgate/pkg/requestcontext"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// ResetLink returns appURL + "/update-password?token=<token>".
func ResetLink(appURL, token string) string {
	return strings.TrimRight(appURL, "/") + "/update-password?token=" + url.QueryEscape(token)
}

// LogMailer writes reset links to the log. Use only outside production.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.logger.InfoContext(ctx, "password reset email",
		"to", privacy.MaskEmail(to),
		"link", link,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// DeriveNameFromEmail guesses a display name from the local part:
// "jane.doe@example.com" -> "Jane Doe".
func DeriveNameFromEmail(email string) string {
	localPart, _, _ := strings.Cut(email, "@")

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
