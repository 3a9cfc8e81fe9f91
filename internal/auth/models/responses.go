package models

import "time"

const (
	MsgRegistered         = "Registration successful. Please check your email to verify your account."
	MsgLoggedIn           = "Login successful"
	MsgLoggedOut          = "Logout successful"
	MsgResetRequested     = "If an account exists with this email, you will receive password reset instructions"
	MsgPasswordUpdated    = "Password reset successful"
	MsgResetEmailThrottle = "Too many password reset requests for this email. Please try again later."

	MsgNoSessionAfterReset = "No active session. Please log in with your new password."
)

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Message string    `json:"message"`
	User    LoginUser `json:"user"`
}

// SessionUser is the public view of the signed-in user.
type SessionUser struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	FullName        string     `json:"fullName,omitempty"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// SessionResponse encodes an anonymous caller as {"user": null}.
type SessionResponse struct {
	User *SessionUser `json:"user"`
}

// ResetEmailThrottledResponse is the 429 body for the per-email reset quota.
type ResetEmailThrottledResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

func NewLoginResponse(u *User) *LoginResponse {
	return &LoginResponse{
		Message: MsgLoggedIn,
		User:    LoginUser{ID: u.ID.String(), Email: u.Email.String()},
	}
}

// NewSessionResponse prefers profile fields over provider fields when both exist.
func NewSessionResponse(cu *CurrentUser) *SessionResponse {
	if cu == nil || cu.User == nil {
		return &SessionResponse{}
	}
	u := &SessionUser{
		ID:              cu.User.ID.String(),
		Email:           cu.User.Email.String(),
		IsEmailVerified: cu.User.EmailVerified,
		FullName:        cu.User.FullName,
		AvatarURL:       cu.User.AvatarURL,
		CreatedAt:       cu.User.CreatedAt,
	}
	if p := cu.Profile; p != nil {
		if p.FullName != "" {
			u.FullName = p.FullName
		}
		if p.AvatarURL != "" {
			u.AvatarURL = p.AvatarURL
		}
		u.CreatedAt = p.CreatedAt
		u.LastLoginAt = p.LastLoginAt
	}
	return &SessionResponse{User: u}
}
