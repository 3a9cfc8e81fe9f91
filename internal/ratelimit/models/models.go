package models

import (
	"math"
	"time"

	dErrors "authgate/pkg/domain-errors"
)

// RouteClass groups routes that share one quota.
type RouteClass string

const (
	// ClassGeneral: every /api route without a stricter class (60 req/min)
	ClassGeneral RouteClass = "general"
	// ClassAuth: /api/auth login, register and session routes (5 req/min)
	ClassAuth RouteClass = "auth"
	// ClassPasswordReset: reset-password and update-password (10 req/hour)
	ClassPasswordReset RouteClass = "password_reset"
	// ClassResetEmail: per-email reset request quota (3 req/hour)
	ClassResetEmail RouteClass = "reset_email"
)

// IsValid reports whether c is one of the known route classes.
func (c RouteClass) IsValid() bool {
	switch c {
	case ClassGeneral, ClassAuth, ClassPasswordReset, ClassResetEmail:
		return true
	}
	return false
}

// Policy is the caller-supplied limit for one check. It is never stored.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Validate rejects non-positive limits and windows.
func (p Policy) Validate() error {
	if p.Limit <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "rate limit must be positive")
	}
	if p.Window <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "rate limit window must be positive")
	}
	return nil
}

// Entry is the counter state for one key within its current window.
type Entry struct {
	Key           string    `json:"key"`
	Count         int       `json:"count"`
	WindowResetAt time.Time `json:"window_reset_at"`
}

// ExpiredAt reports whether the window has elapsed at now.
func (e Entry) ExpiredAt(now time.Time) bool {
	return !now.Before(e.WindowResetAt)
}

// Decision is the outcome of a single check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// RetryAfter returns whole seconds until ResetAt, rounded up. A denied
// decision whose reset lies in the future never reports less than 1.
func (d Decision) RetryAfter(now time.Time) int {
	until := d.ResetAt.Sub(now)
	if until <= 0 {
		return 0
	}
	return int(math.Ceil(until.Seconds()))
}

// ResetAtMillis is ResetAt as Unix epoch milliseconds.
func (d Decision) ResetAtMillis() int64 {
	return d.ResetAt.UnixMilli()
}
