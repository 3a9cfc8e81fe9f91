package audit

import (
	"context"
	"log/slog"
	"time"

	id "authgate/pkg/domain"
	"authgate/pkg/platform/privacy"
	"authgate/pkg/requestcontext"
)

// Emitter receives audit events alongside the structured log line.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes audit events to slog and, when configured, an Emitter.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
	now        func() time.Time
}

// NewLogger creates an audit logger. emitter may be nil.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{textLogger: textLogger, emitter: emitter, now: time.Now}
}

// Log records event with key/value attributes. "user_id", "email" and
// "reason" are lifted into the emitted Event; emails are masked in both sinks.
//
//	auditLog.Log(ctx, audit.EventUserCreated, "user_id", u.ID.String(), "email", u.Email.String())
func (l *Logger) Log(ctx context.Context, action Action, attributes ...any) {
	if l == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	email := extractString(attributes, "email")
	if email != "" {
		attributes = replaceString(attributes, "email", privacy.MaskEmail(email))
	}

	if l.textLogger != nil {
		args := append([]any{}, attributes...)
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		args = append(args, "event", string(action), "log_type", "audit")
		l.textLogger.InfoContext(ctx, string(action), args...)
	}

	if l.emitter == nil {
		return
	}
	userID, _ := id.ParseUserID(extractString(attributes, "user_id"))
	err := l.emitter.Emit(ctx, Event{
		Timestamp: l.now(),
		UserID:    userID,
		Action:    string(action),
		Email:     extractString(attributes, "email"),
		Reason:    extractString(attributes, "reason"),
		RequestID: requestID,
	})
	if err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", string(action),
		)
	}
}

func extractString(attributes []any, key string) string {
	for i := 0; i+1 < len(attributes); i += 2 {
		if k, ok := attributes[i].(string); ok && k == key {
			if v, ok := attributes[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}

func replaceString(attributes []any, key, value string) []any {
	out := append([]any{}, attributes...)
	for i := 0; i+1 < len(out); i += 2 {
		if k, ok := out[i].(string); ok && k == key {
			out[i+1] = value
		}
	}
	return out
}
