// Package service applies route-class quotas on top of the window store.
//
// Usage:
//
//	svc, _ := service.New(window.New(), service.WithConfig(cfg))
//	decision, _ := svc.CheckClient(ctx, clientID, r.URL.Path, models.ClassAuth)
//	if !decision.Allowed {
//	    // Return 429 Too Many Requests
//	}
//
// Keys are opaque to the store, so business-level quotas (such as the
// per-email password reset limit) call Check with their own prefixed key.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"authgate/internal/ratelimit/config"
	"authgate/internal/ratelimit/metrics"
	"authgate/internal/ratelimit/models"
	"authgate/internal/ratelimit/ports"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/privacy"
	"authgate/pkg/requestcontext"
)

const classCustom = "custom"

// Service is safe for concurrent use by HTTP middleware.
type Service struct {
	store   ports.WindowStore
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default route class quotas.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a limiter service over store.
func New(store ports.WindowStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("window store is required")
	}
	svc := &Service{
		store:  store,
		config: config.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check counts one request against an arbitrary key.
func (s *Service) Check(ctx context.Context, key string, policy models.Policy) (*models.Decision, error) {
	return s.check(ctx, key, policy, classCustom)
}

// CheckClass counts one request against key using the quota configured for class.
func (s *Service) CheckClass(ctx context.Context, key string, class models.RouteClass) (*models.Decision, error) {
	policy, err := s.PolicyFor(class)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, key, policy, string(class))
}

// CheckClient limits one client on one request path under the class quota.
func (s *Service) CheckClient(ctx context.Context, clientID, path string, class models.RouteClass) (*models.Decision, error) {
	return s.CheckClass(ctx, models.NewRouteKey(clientID, path), class)
}

// PolicyFor returns the configured quota for class.
func (s *Service) PolicyFor(class models.RouteClass) (models.Policy, error) {
	return s.config.PolicyFor(class)
}

func (s *Service) check(ctx context.Context, key string, policy models.Policy, class string) (*models.Decision, error) {
	if err := policy.Validate(); err != nil {
		s.logger.ErrorContext(ctx, "invalid rate limit policy",
			"class", class,
			"limit", policy.Limit,
			"window_ms", policy.Window.Milliseconds(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	decision, err := s.store.Check(ctx, key, policy)
	if err != nil {
		s.recordDecision(class, "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	if !decision.Allowed {
		s.recordDecision(class, "denied")
		s.logger.InfoContext(ctx, "rate_limit_exceeded",
			"class", class,
			"key", redactKey(key),
			"limit", decision.Limit,
			"reset_at", decision.ResetAt,
			"request_id", requestcontext.RequestID(ctx),
		)
		return decision, nil
	}

	s.recordDecision(class, "allowed")
	return decision, nil
}

func (s *Service) recordDecision(class, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementDecision(class, outcome)
	}
}

// Reset removes the counter for key.
func (s *Service) Reset(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return dErrors.New(dErrors.CodeValidation, "key is required")
	}
	if err := s.store.Reset(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset rate limit")
	}
	s.logger.InfoContext(ctx, "rate_limit_reset",
		"key", redactKey(key),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Clear removes every counter.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear rate limits")
	}
	s.logger.InfoContext(ctx, "rate_limit_cleared", "request_id", requestcontext.RequestID(ctx))
	return nil
}

// Peek returns the live entry for key.
func (s *Service) Peek(ctx context.Context, key string) (*models.Entry, bool) {
	return s.store.Peek(ctx, key)
}

// redactKey keeps the key namespace and anonymizes the identifying segment.
// Route keys keep their path; reset-email keys have the address masked.
func redactKey(key string) string {
	switch {
	case strings.HasPrefix(key, models.KeyPrefixRoute):
		rest := strings.TrimPrefix(key, models.KeyPrefixRoute)
		client, path, ok := strings.Cut(rest, ":/")
		if !ok {
			return models.KeyPrefixRoute + privacy.AnonymizeIP(rest)
		}
		return models.KeyPrefixRoute + privacy.AnonymizeIP(client) + ":/" + path
	case strings.HasPrefix(key, models.KeyPrefixResetEmail):
		return models.KeyPrefixResetEmail + privacy.MaskEmail(strings.TrimPrefix(key, models.KeyPrefixResetEmail))
	default:
		prefix, _, _ := strings.Cut(key, ":")
		return prefix + ":***"
	}
}
