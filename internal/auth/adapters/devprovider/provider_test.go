package devprovider

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"authgate/internal/auth/models"
	jwttoken "authgate/internal/jwt_token"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/middleware/requesttime"
	"authgate/pkg/platform/sentinel"
)

type captureMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[to] = link
	return nil
}

func (m *captureMailer) tokenFor(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := url.Parse(m.links[to])
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

type ProviderSuite struct {
	suite.Suite
	provider *Provider
	mailer   *captureMailer
	ctx      context.Context
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) SetupTest() {
	s.mailer = &captureMailer{links: map[string]string{}}
	s.ctx = context.Background()
	p, err := New(Config{
		AppURL:            "http://localhost:3000",
		GoogleClientID:    "dev-client",
		GoogleRedirectURL: "http://localhost:8080/api/auth/callback",
		GoogleCodes: map[string]GoogleIdentity{
			"dev-google-code": {Email: "Grace@Example.com", FullName: "Grace Hopper", AvatarURL: "https://img.example/g.png"},
		},
	},
		jwttoken.NewJWTService("test-key", "authgate", "authgate-web", time.Hour),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMailer(s.mailer),
	)
	s.Require().NoError(err)
	s.provider = p
}

func (s *ProviderSuite) register(addr, password string) *models.User {
	u, err := s.provider.Register(s.ctx, models.Email(addr), models.Password(password))
	s.Require().NoError(err)
	return u
}

func (s *ProviderSuite) TestNewRequiresTokenService() {
	_, err := New(Config{}, nil)
	s.Error(err)
}

func (s *ProviderSuite) TestRegisterAndLogin() {
	u := s.register("jane.doe@example.com", "Secret123")
	s.True(u.EmailVerified)
	s.Equal("Jane Doe", u.FullName)

	result, err := s.provider.Login(s.ctx, "jane.doe@example.com", "Secret123")
	s.Require().NoError(err)
	s.Equal(u.ID, result.User.ID)
	s.NotEmpty(result.AccessToken)
	s.NotEmpty(result.RefreshToken)

	session, err := s.provider.GetSession(s.ctx, result.AccessToken)
	s.Require().NoError(err)
	s.Equal(u.ID, session.User.ID)
}

func (s *ProviderSuite) TestRegisterDuplicate() {
	s.register("dup@example.com", "Secret123")

	_, err := s.provider.Register(s.ctx, "dup@example.com", "Secret123")

	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ProviderSuite) TestLoginFailures() {
	s.register("user@example.com", "Secret123")

	s.Run("wrong password", func() {
		_, err := s.provider.Login(s.ctx, "user@example.com", "Wrong123")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown user", func() {
		_, err := s.provider.Login(s.ctx, "ghost@example.com", "Secret123")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("oauth-only account has no password", func() {
		_, err := s.provider.ExchangeGoogleCode(s.ctx, "dev-google-code")
		s.Require().NoError(err)

		_, err = s.provider.Login(s.ctx, "grace@example.com", "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ProviderSuite) TestRequireVerification() {
	s.provider.cfg.RequireVerification = true
	u := s.register("pending@example.com", "Secret123")
	s.False(u.EmailVerified)

	_, err := s.provider.Login(s.ctx, "pending@example.com", "Secret123")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	s.Require().NoError(s.provider.VerifyEmail(s.ctx, "pending@example.com"))
	_, err = s.provider.Login(s.ctx, "pending@example.com", "Secret123")
	s.NoError(err)
}

func (s *ProviderSuite) TestGoogleFlow() {
	authURL, err := s.provider.GoogleAuthURL(s.ctx, "state-123")
	s.Require().NoError(err)
	u, err := url.Parse(authURL)
	s.Require().NoError(err)
	s.Equal("state-123", u.Query().Get("state"))
	s.Equal("dev-client", u.Query().Get("client_id"))

	first, err := s.provider.ExchangeGoogleCode(s.ctx, "dev-google-code")
	s.Require().NoError(err)
	s.Equal(models.Email("grace@example.com"), first.User.Email)
	s.Equal("Grace Hopper", first.User.FullName)
	s.True(first.User.EmailVerified)

	second, err := s.provider.ExchangeGoogleCode(s.ctx, "dev-google-code")
	s.Require().NoError(err)
	s.Equal(first.User.ID, second.User.ID)

	_, err = s.provider.ExchangeGoogleCode(s.ctx, "unknown")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func (s *ProviderSuite) TestPasswordResetFlow() {
	s.register("reset@example.com", "Secret123")
	login, err := s.provider.Login(s.ctx, "reset@example.com", "Secret123")
	s.Require().NoError(err)

	s.Require().NoError(s.provider.RequestPasswordReset(s.ctx, "reset@example.com"))
	token := s.mailer.tokenFor("reset@example.com")
	s.Len(token, 64)
	s.True(strings.HasPrefix(s.mailer.links["reset@example.com"], "http://localhost:3000/update-password?token="))

	s.Require().NoError(s.provider.ValidateResetToken(s.ctx, models.ResetToken(token)))
	s.Require().NoError(s.provider.ResetPassword(s.ctx, models.ResetToken(token), "NewSecret1"))

	_, err = s.provider.Login(s.ctx, "reset@example.com", "Secret123")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "old password rejected")
	_, err = s.provider.Login(s.ctx, "reset@example.com", "NewSecret1")
	s.NoError(err)

	_, err = s.provider.GetSession(s.ctx, login.AccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken), "sessions end on reset")

	err = s.provider.ResetPassword(s.ctx, models.ResetToken(token), "Another1x")
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *ProviderSuite) TestResetTokenExpiry() {
	s.register("late@example.com", "Secret123")
	issuedAt := time.Now()
	s.Require().NoError(s.provider.RequestPasswordReset(requesttime.WithTime(s.ctx, issuedAt), "late@example.com"))
	token := models.ResetToken(s.mailer.tokenFor("late@example.com"))

	later := requesttime.WithTime(s.ctx, issuedAt.Add(DefaultResetTokenTTL))
	s.ErrorIs(s.provider.ValidateResetToken(later, token), sentinel.ErrExpired)
}

func (s *ProviderSuite) TestResetUnknownEmail() {
	err := s.provider.RequestPasswordReset(s.ctx, "ghost@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.provider.ValidateResetToken(s.ctx, models.ResetToken(strings.Repeat("0", 64)))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ProviderSuite) TestLogout() {
	s.register("out@example.com", "Secret123")
	login, err := s.provider.Login(s.ctx, "out@example.com", "Secret123")
	s.Require().NoError(err)

	s.Require().NoError(s.provider.Logout(s.ctx, login.AccessToken))

	_, err = s.provider.GetSession(s.ctx, login.AccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	s.ErrorIs(s.provider.Logout(s.ctx, login.AccessToken), sentinel.ErrNotFound)
}

func (s *ProviderSuite) TestPurgeExpired() {
	s.register("purge@example.com", "Secret123")
	s.Require().NoError(s.provider.RequestPasswordReset(requesttime.WithTime(s.ctx, time.Now().Add(-2*time.Hour)), "purge@example.com"))
	_, err := s.provider.Login(s.ctx, "purge@example.com", "Secret123")
	s.Require().NoError(err)

	removed, err := s.provider.PurgeExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, removed)

	accounts, sessions, resets := s.provider.Stats()
	s.Equal(1, accounts)
	s.Equal(1, sessions)
	s.Equal(0, resets)
}
