package models

import (
	"time"

	id "authgate/pkg/domain"
)

// User is the identity held by the authentication provider.
type User struct {
	ID            id.UserID
	Email         Email
	EmailVerified bool
	FullName      string
	AvatarURL     string
	CreatedAt     time.Time
}

// UserProfile is the application-side record kept next to the provider
// identity. It is created on registration or first OAuth login.
type UserProfile struct {
	UserID      id.UserID
	Email       Email
	FullName    string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// NewUserProfile seeds a profile from the provider identity.
func NewUserProfile(u *User, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordLogin moves LastLoginAt forward; older timestamps are ignored.
func (p *UserProfile) RecordLogin(at time.Time) {
	if p.LastLoginAt == nil || at.After(*p.LastLoginAt) {
		p.LastLoginAt = &at
		p.UpdatedAt = at
	}
}

// AuthResult is returned by a successful password or OAuth login.
type AuthResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Session is the caller's current provider session.
type Session struct {
	User        *User
	AccessToken string
	ExpiresAt   time.Time
}

// Expired reports whether the session's access token has lapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// CurrentUser joins the provider identity with the profile for session reads.
type CurrentUser struct {
	User    *User
	Profile *UserProfile
}
