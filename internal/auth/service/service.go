// Package service implements the account use cases: registration, password
// and Google login, password reset and session reads.
//
// The identity provider and profile storage are ports; the per-email reset
// quota is enforced here, on top of whatever route limit the caller passed.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"authgate/internal/auth/metrics"
	"authgate/internal/auth/models"
	"authgate/internal/auth/ports"
	rlmodels "authgate/internal/ratelimit/models"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/audit"
	"authgate/pkg/platform/middleware/requesttime"
	"authgate/pkg/platform/privacy"
	"authgate/pkg/platform/sentinel"
	"authgate/pkg/requestcontext"
)

const (
	methodPassword = "password"
	methodGoogle   = "google"

	msgInvalidCredentials = "Invalid email or password"
	msgEmailNotVerified   = "Please verify your email address before logging in"
	msgProviderFailure    = "authentication provider unavailable"
)

type Service struct {
	provider ports.AuthenticationService
	users    ports.UserRepository
	limiter  ports.RateLimiter
	logger   *slog.Logger
	audit    *audit.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditLogger(l *audit.Logger) Option {
	return func(s *Service) {
		s.audit = l
	}
}

// WithTracer replaces the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(provider ports.AuthenticationService, users ports.UserRepository, limiter ports.RateLimiter, opts ...Option) (*Service, error) {
	if provider == nil {
		return nil, errors.New("auth provider is required")
	}
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	svc := &Service{provider: provider, users: users, limiter: limiter}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer(tracerName)
	}
	return svc, nil
}

// Register creates the provider account and the matching profile. A profile
// write failure is logged; the profile is recreated on first login.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (user *models.User, err error) {
	ctx, span := s.startSpan(ctx, "auth.Register")
	defer func() { endSpan(span, err) }()

	email, err := models.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}
	password, err := models.NewPassword(req.Password)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	user, err = s.provider.Register(ctx, email, password)
	s.observeProvider("register", started)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			s.logger.InfoContext(ctx, "registration for existing email",
				"email", privacy.MaskEmail(email.String()),
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.New(dErrors.CodeConflict, "An account with this email already exists")
		}
		return nil, providerError(err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	if _, _, perr := s.ensureProfile(ctx, user); perr != nil {
		s.logger.ErrorContext(ctx, "failed to create user profile",
			"error", perr,
			"user_id", user.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.incrementUsersCreated()
	s.logAudit(ctx, audit.EventUserCreated, "user_id", user.ID.String(), "email", email.String())
	return user, nil
}

// Login authenticates with email and password. Only a non-empty password is
// required here; strength rules apply when a password is set.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (result *models.AuthResult, err error) {
	ctx, span := s.startSpan(ctx, "auth.Login", attribute.String("auth.method", methodPassword))
	defer func() { endSpan(span, err) }()

	email, err := models.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	started := time.Now()
	result, err = s.provider.Login(ctx, email, req.Password)
	s.observeProvider("login", started)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeForbidden):
			s.incrementLogin(methodPassword, metrics.OutcomeUnverified)
			s.logAudit(ctx, audit.EventAuthFailed, "email", email.String(), "reason", "email_not_verified")
			return nil, dErrors.New(dErrors.CodeForbidden, msgEmailNotVerified)
		case dErrors.HasCode(err, dErrors.CodeUnauthorized), errors.Is(err, sentinel.ErrNotFound):
			s.incrementLogin(methodPassword, metrics.OutcomeFailure)
			s.logAudit(ctx, audit.EventAuthFailed, "email", email.String(), "reason", "invalid_credentials")
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
		default:
			s.incrementLogin(methodPassword, metrics.OutcomeError)
			return nil, providerError(err)
		}
	}

	s.completeLogin(ctx, result.User, methodPassword)
	return result, nil
}

// GoogleAuthURL returns the provider consent URL bound to state.
func (s *Service) GoogleAuthURL(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "state is required")
	}
	url, err := s.provider.GoogleAuthURL(ctx, state)
	if err != nil {
		return "", providerError(err)
	}
	return url, nil
}

// GoogleCallback exchanges an OAuth code for a session and provisions the
// profile on first login.
func (s *Service) GoogleCallback(ctx context.Context, code string) (result *models.AuthResult, err error) {
	ctx, span := s.startSpan(ctx, "auth.GoogleCallback", attribute.String("auth.method", methodGoogle))
	defer func() { endSpan(span, err) }()

	if code == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "authorization code is required")
	}

	started := time.Now()
	result, err = s.provider.ExchangeGoogleCode(ctx, code)
	s.observeProvider("exchange_google_code", started)
	if err != nil {
		s.incrementLogin(methodGoogle, metrics.OutcomeFailure)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) || dErrors.HasCode(err, dErrors.CodeInvalidToken) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "OAuth code exchange failed")
		}
		return nil, providerError(err)
	}

	s.completeLogin(ctx, result.User, methodGoogle)
	return result, nil
}

// RequestPasswordReset applies the per-email quota and asks the provider to
// send a reset link. Unknown accounts and provider failures are not reported
// to the caller.
func (s *Service) RequestPasswordReset(ctx context.Context, req *models.ResetPasswordRequest) (err error) {
	ctx, span := s.startSpan(ctx, "auth.RequestPasswordReset")
	defer func() { endSpan(span, err) }()

	email, err := models.NewEmail(req.Email)
	if err != nil {
		return err
	}

	decision, err := s.limiter.CheckClass(ctx, rlmodels.NewResetEmailKey(email.String()), rlmodels.ClassResetEmail)
	if err != nil {
		s.incrementResetRequest(metrics.OutcomeError)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check reset quota")
	}
	if !decision.Allowed {
		s.incrementResetRequest(metrics.OutcomeRateLimited)
		s.logAudit(ctx, audit.EventPasswordResetThrottled, "email", email.String())
		return &RateLimitedError{Decision: decision}
	}

	started := time.Now()
	perr := s.provider.RequestPasswordReset(ctx, email)
	s.observeProvider("request_password_reset", started)
	if perr != nil {
		s.incrementResetRequest(metrics.OutcomeFailure)
		s.logger.WarnContext(ctx, "password reset request not delivered",
			"error", perr,
			"email", privacy.MaskEmail(email.String()),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	s.incrementResetRequest(metrics.OutcomeSuccess)
	s.logAudit(ctx, audit.EventPasswordResetRequested, "email", email.String())
	return nil
}

// ResetPassword sets a new password using a reset token.
func (s *Service) ResetPassword(ctx context.Context, req *models.UpdatePasswordRequest) (err error) {
	ctx, span := s.startSpan(ctx, "auth.ResetPassword")
	defer func() { endSpan(span, err) }()

	token, err := models.NewResetToken(req.Token)
	if err != nil {
		s.incrementPasswordReset(metrics.OutcomeFailure)
		return err
	}
	password, err := models.NewPassword(req.Password)
	if err != nil {
		return err
	}

	if err = s.provider.ValidateResetToken(ctx, token); err == nil {
		err = s.provider.ResetPassword(ctx, token, password)
	}
	if err != nil {
		s.incrementPasswordReset(metrics.OutcomeFailure)
		if isTokenRejection(err) {
			return dErrors.New(dErrors.CodeInvalidToken, "Reset link has expired or is invalid. Please request a new one.")
		}
		return providerError(err)
	}

	s.incrementPasswordReset(metrics.OutcomeSuccess)
	s.logAudit(ctx, audit.EventPasswordResetCompleted)
	return nil
}

// CurrentUser returns nil without error when the token is absent, rejected
// or expired.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*models.CurrentUser, error) {
	if accessToken == "" {
		return nil, nil
	}
	session, err := s.provider.GetSession(ctx, accessToken)
	if err != nil {
		if isTokenRejection(err) || dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, nil
		}
		return nil, providerError(err)
	}
	if session == nil || session.User == nil || session.Expired(requesttime.Now(ctx)) {
		return nil, nil
	}

	profile, err := s.users.FindProfile(ctx, session.User.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user profile")
	}
	return &models.CurrentUser{User: session.User, Profile: profile}, nil
}

// Logout ends the provider session. Tokens the provider no longer knows are
// treated as already logged out.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.provider.Logout(ctx, accessToken); err != nil {
		if isTokenRejection(err) || dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil
		}
		return providerError(err)
	}
	s.logAudit(ctx, audit.EventUserLoggedOut, "user_id", requestcontext.UserID(ctx).String())
	return nil
}

// completeLogin provisions the profile if needed and stamps the login time.
// Failures here never fail the login.
func (s *Service) completeLogin(ctx context.Context, user *models.User, method string) {
	now := requesttime.Now(ctx)
	_, created, err := s.ensureProfile(ctx, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to provision user profile",
			"error", err,
			"user_id", user.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if created && method == methodGoogle {
		s.incrementUsersCreated()
		s.logAudit(ctx, audit.EventOAuthProfileProvisioned, "user_id", user.ID.String(), "email", user.Email.String())
	}
	if err == nil {
		if uerr := s.users.UpdateLastLogin(ctx, user.ID, now); uerr != nil {
			s.logger.WarnContext(ctx, "failed to update last login",
				"error", uerr,
				"user_id", user.ID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	s.incrementLogin(method, metrics.OutcomeSuccess)
	s.logAudit(ctx, audit.EventUserLoggedIn,
		"user_id", user.ID.String(),
		"method", method,
		"device", requestcontext.DeviceDisplayName(ctx),
	)
}

// ensureProfile returns the existing profile or creates one from user.
func (s *Service) ensureProfile(ctx context.Context, user *models.User) (*models.UserProfile, bool, error) {
	profile, err := s.users.FindProfile(ctx, user.ID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, err
	}

	profile = models.NewUserProfile(user, requesttime.Now(ctx))
	if err := s.users.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			existing, ferr := s.users.FindProfile(ctx, user.ID)
			return existing, false, ferr
		}
		return nil, false, err
	}
	return profile, true, nil
}

func isTokenRejection(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeInvalidToken) ||
		errors.Is(err, sentinel.ErrExpired) ||
		errors.Is(err, sentinel.ErrAlreadyUsed) ||
		errors.Is(err, sentinel.ErrNotFound)
}

// providerError keeps domain codes from the provider and hides everything else.
func providerError(err error) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msgProviderFailure)
}
