package audit

import (
	"time"

	id "authgate/pkg/domain"
)

// Event captures a security-relevant action taken by or for a user.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    id.UserID `json:"user_id"`
	Action    string    `json:"action"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

type Action string

const (
	EventUserCreated             Action = "user_created"
	EventUserLoggedIn            Action = "user_logged_in"
	EventUserLoggedOut           Action = "user_logged_out"
	EventAuthFailed              Action = "auth_failed"
	EventPasswordResetRequested  Action = "password_reset_requested"
	EventPasswordResetThrottled  Action = "password_reset_throttled"
	EventPasswordResetCompleted  Action = "password_reset_completed"
	EventOAuthProfileProvisioned Action = "oauth_profile_provisioned"
)
