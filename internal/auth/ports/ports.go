// Package ports declares what the auth use cases need from the outside world.
// The identity provider and profile storage stay behind these interfaces so
// the in-memory development adapters can be swapped for hosted services.
package ports

import (
	"context"
	"time"

	"authgate/internal/auth/models"
	rlmodels "authgate/internal/ratelimit/models"
	id "authgate/pkg/domain"
)

// AuthenticationService is the identity provider.
//
// Error contract: unknown users and bad passwords surface as CodeUnauthorized,
// unverified emails as CodeForbidden, duplicate registrations as CodeConflict,
// dead reset tokens as CodeInvalidToken.
type AuthenticationService interface {
	Register(ctx context.Context, email models.Email, password models.Password) (*models.User, error)
	Login(ctx context.Context, email models.Email, password string) (*models.AuthResult, error)
	GoogleAuthURL(ctx context.Context, state string) (string, error)
	ExchangeGoogleCode(ctx context.Context, code string) (*models.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email models.Email) error
	ValidateResetToken(ctx context.Context, token models.ResetToken) error
	ResetPassword(ctx context.Context, token models.ResetToken, password models.Password) error
	GetSession(ctx context.Context, accessToken string) (*models.Session, error)
	Logout(ctx context.Context, accessToken string) error
}

// UserRepository persists application profiles. Missing rows are reported
// with sentinel.ErrNotFound.
type UserRepository interface {
	CreateProfile(ctx context.Context, profile *models.UserProfile) error
	FindProfile(ctx context.Context, userID id.UserID) (*models.UserProfile, error)
	FindByEmail(ctx context.Context, email models.Email) (*models.UserProfile, error)
	UpdateLastLogin(ctx context.Context, userID id.UserID, at time.Time) error
}

// RateLimiter applies a named quota to an arbitrary key.
type RateLimiter interface {
	CheckClass(ctx context.Context, key string, class rlmodels.RouteClass) (*rlmodels.Decision, error)
}
