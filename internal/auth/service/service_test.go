package service

//go:generate mockgen -source=../ports/ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"authgate/internal/auth/metrics"
	"authgate/internal/auth/models"
	"authgate/internal/auth/service/mocks"
	rlmodels "authgate/internal/ratelimit/models"
	id "authgate/pkg/domain"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/audit"
	"authgate/pkg/platform/middleware/requesttime"
	"authgate/pkg/platform/sentinel"
)

var errProviderDown = errors.New("connection refused")

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockAuthenticationService
	users    *mocks.MockUserRepository
	limiter  *mocks.MockRateLimiter
	metrics  *metrics.Metrics
	events   *audit.Buffer
	service  *Service
	ctx      context.Context
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockAuthenticationService(s.ctrl)
	s.users = mocks.NewMockUserRepository(s.ctrl)
	s.limiter = mocks.NewMockRateLimiter(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.events = audit.NewBuffer(16)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error
	s.service, err = New(s.provider, s.users, s.limiter,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithAuditLogger(audit.NewLogger(logger, s.events)),
	)
	s.Require().NoError(err)

	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requesttime.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newUser(email string) *models.User {
	return &models.User{
		ID:            id.NewUserID(),
		Email:         models.Email(email),
		EmailVerified: true,
		CreatedAt:     s.now.Add(-24 * time.Hour),
	}
}

func (s *ServiceSuite) lastAction() string {
	events := s.events.Recent(1)
	if len(events) == 0 {
		return ""
	}
	return events[0].Action
}

func (s *ServiceSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.users, s.limiter)
	s.Error(err)
	_, err = New(s.provider, nil, s.limiter)
	s.Error(err)
	_, err = New(s.provider, s.users, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates account and profile", func() {
		user := s.newUser("new@example.com")
		s.provider.EXPECT().Register(gomock.Any(), models.Email("new@example.com"), models.Password("Secret123")).Return(user, nil)
		s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(nil, sentinel.ErrNotFound)
		s.users.EXPECT().CreateProfile(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *models.UserProfile) error {
				s.Equal(user.ID, p.UserID)
				s.Equal(s.now, p.CreatedAt)
				return nil
			})

		got, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "New@Example.com ", Password: "Secret123"})

		s.Require().NoError(err)
		s.Equal(user.ID, got.ID)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.UsersCreated))
		s.Equal("user_created", s.lastAction())
	})

	s.Run("duplicate email is a conflict", func() {
		s.provider.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "exists"))

		_, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "dup@example.com", Password: "Secret123"})

		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("weak password never reaches provider", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "a@b.co", Password: "weak"})

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("profile failure does not fail registration", func() {
		user := s.newUser("p@example.com")
		s.provider.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)
		s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(nil, errors.New("db down"))

		_, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "p@example.com", Password: "Secret123"})

		s.NoError(err)
	})

	s.Run("opaque provider errors become internal", func() {
		s.provider.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errProviderDown)

		_, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "x@example.com", Password: "Secret123"})

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.ErrorIs(err, errProviderDown)
	})
}

func (s *ServiceSuite) TestLogin() {
	s.Run("success records last login", func() {
		user := s.newUser("user@example.com")
		result := &models.AuthResult{User: user, AccessToken: "at", RefreshToken: "rt", ExpiresAt: s.now.Add(time.Hour)}
		s.provider.EXPECT().Login(gomock.Any(), models.Email("user@example.com"), "any-password").Return(result, nil)
		s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(&models.UserProfile{UserID: user.ID}, nil)
		s.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, s.now).Return(nil)

		got, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "user@example.com", Password: "any-password"})

		s.Require().NoError(err)
		s.Equal("at", got.AccessToken)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues(methodPassword, metrics.OutcomeSuccess)))
		s.Equal("user_logged_in", s.lastAction())
	})

	s.Run("bad credentials", func() {
		s.provider.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid secret"))

		_, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "user@example.com", Password: "nope"})

		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(msgInvalidCredentials, err.Error())
		s.Equal("auth_failed", s.lastAction())
	})

	s.Run("unknown user reads as bad credentials", func() {
		s.provider.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "ghost@example.com", Password: "nope"})

		s.Equal(msgInvalidCredentials, err.Error())
	})

	s.Run("unverified email is forbidden", func() {
		s.provider.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "email not confirmed"))

		_, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "user@example.com", Password: "pw"})

		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(msgEmailNotVerified, err.Error())
	})

	s.Run("last login failure is swallowed", func() {
		user := s.newUser("user@example.com")
		s.provider.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.AuthResult{User: user}, nil)
		s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(&models.UserProfile{UserID: user.ID}, nil)
		s.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, gomock.Any()).Return(errors.New("write failed"))

		_, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "user@example.com", Password: "pw"})

		s.NoError(err)
	})

	s.Run("empty password", func() {
		_, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "user@example.com"})

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestGoogleCallback() {
	s.Run("first login provisions profile", func() {
		user := s.newUser("g@example.com")
		s.provider.EXPECT().ExchangeGoogleCode(gomock.Any(), "code-1").Return(&models.AuthResult{User: user, AccessToken: "at"}, nil)
		s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(nil, sentinel.ErrNotFound)
		s.users.EXPECT().CreateProfile(gomock.Any(), gomock.Any()).Return(nil)
		s.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, s.now).Return(nil)

		got, err := s.service.GoogleCallback(s.ctx, "code-1")

		s.Require().NoError(err)
		s.Equal("at", got.AccessToken)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.UsersCreated))
	})

	s.Run("concurrent provisioning reuses existing profile", func() {
		user := s.newUser("g2@example.com")
		existing := &models.UserProfile{UserID: user.ID}
		s.provider.EXPECT().ExchangeGoogleCode(gomock.Any(), "code-2").Return(&models.AuthResult{User: user}, nil)
		gomock.InOrder(
			s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(nil, sentinel.ErrNotFound),
			s.users.EXPECT().CreateProfile(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
			s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(existing, nil),
		)
		s.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)

		_, err := s.service.GoogleCallback(s.ctx, "code-2")

		s.NoError(err)
	})

	s.Run("missing code", func() {
		_, err := s.service.GoogleCallback(s.ctx, "")

		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejected code", func() {
		s.provider.EXPECT().ExchangeGoogleCode(gomock.Any(), "bad").
			Return(nil, dErrors.New(dErrors.CodeInvalidToken, "unknown code"))

		_, err := s.service.GoogleCallback(s.ctx, "bad")

		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestGoogleAuthURL() {
	s.Run("requires state", func() {
		_, err := s.service.GoogleAuthURL(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("delegates to provider", func() {
		s.provider.EXPECT().GoogleAuthURL(gomock.Any(), "st").Return("https://accounts.example/auth?state=st", nil)

		url, err := s.service.GoogleAuthURL(s.ctx, "st")

		s.NoError(err)
		s.Contains(url, "state=st")
	})
}

func (s *ServiceSuite) TestRequestPasswordReset() {
	allowed := &rlmodels.Decision{Allowed: true, Limit: 3, Remaining: 2, ResetAt: s.now.Add(time.Hour)}

	s.Run("uses normalized per-email key", func() {
		s.limiter.EXPECT().CheckClass(gomock.Any(), "reset-password-email:user@example.com", rlmodels.ClassResetEmail).Return(allowed, nil)
		s.provider.EXPECT().RequestPasswordReset(gomock.Any(), models.Email("user@example.com")).Return(nil)

		err := s.service.RequestPasswordReset(s.ctx, &models.ResetPasswordRequest{Email: "  User@Example.com "})

		s.NoError(err)
		s.Equal("password_reset_requested", s.lastAction())
	})

	s.Run("exhausted quota carries decision", func() {
		denied := &rlmodels.Decision{Allowed: false, Limit: 3, Remaining: 0, ResetAt: s.now.Add(30 * time.Minute)}
		s.limiter.EXPECT().CheckClass(gomock.Any(), gomock.Any(), rlmodels.ClassResetEmail).Return(denied, nil)

		err := s.service.RequestPasswordReset(s.ctx, &models.ResetPasswordRequest{Email: "user@example.com"})

		var rle *RateLimitedError
		s.Require().ErrorAs(err, &rle)
		s.Same(denied, rle.Decision)
		s.ErrorIs(err, &dErrors.Error{Code: dErrors.CodeRateLimited})
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.PasswordResetRequests.WithLabelValues(metrics.OutcomeRateLimited)))
	})

	s.Run("provider failure is hidden", func() {
		s.limiter.EXPECT().CheckClass(gomock.Any(), gomock.Any(), gomock.Any()).Return(allowed, nil)
		s.provider.EXPECT().RequestPasswordReset(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)

		err := s.service.RequestPasswordReset(s.ctx, &models.ResetPasswordRequest{Email: "ghost@example.com"})

		s.NoError(err)
	})

	s.Run("limiter error fails closed", func() {
		s.limiter.EXPECT().CheckClass(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("store broken"))

		err := s.service.RequestPasswordReset(s.ctx, &models.ResetPasswordRequest{Email: "user@example.com"})

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("invalid email skips quota", func() {
		err := s.service.RequestPasswordReset(s.ctx, &models.ResetPasswordRequest{Email: "not-an-email"})

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestResetPassword() {
	token := strings.Repeat("ab", 32)

	s.Run("valid token and password", func() {
		s.provider.EXPECT().ValidateResetToken(gomock.Any(), models.ResetToken(token)).Return(nil)
		s.provider.EXPECT().ResetPassword(gomock.Any(), models.ResetToken(token), models.Password("NewSecret1")).Return(nil)

		err := s.service.ResetPassword(s.ctx, &models.UpdatePasswordRequest{Token: token, Password: "NewSecret1"})

		s.NoError(err)
		s.Equal("password_reset_completed", s.lastAction())
	})

	s.Run("short token", func() {
		err := s.service.ResetPassword(s.ctx, &models.UpdatePasswordRequest{Token: "short", Password: "NewSecret1"})

		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("expired token", func() {
		s.provider.EXPECT().ValidateResetToken(gomock.Any(), gomock.Any()).Return(sentinel.ErrExpired)

		err := s.service.ResetPassword(s.ctx, &models.UpdatePasswordRequest{Token: token, Password: "NewSecret1"})

		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("weak password", func() {
		err := s.service.ResetPassword(s.ctx, &models.UpdatePasswordRequest{Token: token, Password: "weakpass"})

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestCurrentUser() {
	s.Run("no token", func() {
		got, err := s.service.CurrentUser(s.ctx, "")
		s.NoError(err)
		s.Nil(got)
	})

	s.Run("rejected token is anonymous", func() {
		s.provider.EXPECT().GetSession(gomock.Any(), "stale").Return(nil, dErrors.New(dErrors.CodeInvalidToken, "expired"))

		got, err := s.service.CurrentUser(s.ctx, "stale")

		s.NoError(err)
		s.Nil(got)
	})

	s.Run("expired session is anonymous", func() {
		user := s.newUser("u@example.com")
		s.provider.EXPECT().GetSession(gomock.Any(), "at").Return(&models.Session{User: user, ExpiresAt: s.now}, nil)

		got, err := s.service.CurrentUser(s.ctx, "at")

		s.NoError(err)
		s.Nil(got)
	})

	s.Run("joins profile", func() {
		user := s.newUser("u@example.com")
		profile := &models.UserProfile{UserID: user.ID, FullName: "U"}
		s.provider.EXPECT().GetSession(gomock.Any(), "at").Return(&models.Session{User: user, ExpiresAt: s.now.Add(time.Minute)}, nil)
		s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(profile, nil)

		got, err := s.service.CurrentUser(s.ctx, "at")

		s.Require().NoError(err)
		s.Same(profile, got.Profile)
	})

	s.Run("missing profile is tolerated", func() {
		user := s.newUser("u@example.com")
		s.provider.EXPECT().GetSession(gomock.Any(), "at").Return(&models.Session{User: user, ExpiresAt: s.now.Add(time.Minute)}, nil)
		s.users.EXPECT().FindProfile(gomock.Any(), user.ID).Return(nil, sentinel.ErrNotFound)

		got, err := s.service.CurrentUser(s.ctx, "at")

		s.Require().NoError(err)
		s.Nil(got.Profile)
	})
}

func (s *ServiceSuite) TestLogout() {
	s.Run("no token is a noop", func() {
		s.NoError(s.service.Logout(s.ctx, ""))
	})

	s.Run("unknown token treated as logged out", func() {
		s.provider.EXPECT().Logout(gomock.Any(), "gone").Return(sentinel.ErrNotFound)
		s.NoError(s.service.Logout(s.ctx, "gone"))
	})

	s.Run("provider failure surfaces", func() {
		s.provider.EXPECT().Logout(gomock.Any(), "at").Return(errProviderDown)
		s.True(dErrors.HasCode(s.service.Logout(s.ctx, "at"), dErrors.CodeInternal))
	})
}
