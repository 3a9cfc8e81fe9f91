package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"authgate/internal/ratelimit/metrics"
	"authgate/internal/ratelimit/models"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/httputil"
	"authgate/pkg/platform/middleware/metadata"
	"authgate/pkg/platform/privacy"
	"authgate/pkg/requestcontext"
)

const (
	tooManyRequestsError   = "Too Many Requests"
	tooManyRequestsMessage = "You have exceeded the rate limit. Please try again later."
)

// Limiter decides whether a keyed request fits its policy.
type Limiter interface {
	Check(ctx context.Context, key string, policy models.Policy) (*models.Decision, error)
	PolicyFor(class models.RouteClass) (models.Policy, error)
}

type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Middleware)

// WithClock overrides time.Now used for Retry-After.
func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		if now != nil {
			m.now = now
		}
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ClientKeyOf derives the client identifier from forwarding headers.
func ClientKeyOf(h http.Header) string {
	return metadata.ClientKeyOf(h)
}

// WithRateLimit limits handlers with a fixed policy and the default logger.
func WithRateLimit(limiter Limiter, policy models.Policy) func(http.Handler) http.Handler {
	return New(limiter, slog.Default()).WithRateLimit(policy)
}

// WithRateLimit checks "rate-limit:{client}:{path}" against policy. Denied
// requests get a 429 and never reach next. Allowed requests carry the
// X-RateLimit-* headers into next's response. Panics and errors from next
// are not intercepted.
func (m *Middleware) WithRateLimit(policy models.Policy) func(http.Handler) http.Handler {
	return m.limit(func() (models.Policy, error) { return policy, nil })
}

// RouteClass is WithRateLimit with the policy configured for class.
func (m *Middleware) RouteClass(class models.RouteClass) func(http.Handler) http.Handler {
	return m.limit(func() (models.Policy, error) { return m.limiter.PolicyFor(class) })
}

func (m *Middleware) limit(policyOf func() (models.Policy, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			client := clientOf(r)

			decision, err := m.decide(ctx, policyOf, models.NewRouteKey(client, r.URL.Path))
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"client_prefix", privacy.AnonymizeIP(client),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "rate limit check failed"))
				return
			}

			if !decision.Allowed {
				WriteRateLimitExceeded(w, decision, m.now(), tooManyRequestsMessage)
				return
			}

			SetRateLimitHeaders(w, decision)
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) decide(ctx context.Context, policyOf func() (models.Policy, error), key string) (*models.Decision, error) {
	policy, err := policyOf()
	if err != nil {
		return nil, err
	}
	return m.limiter.Check(ctx, key, policy)
}

func clientOf(r *http.Request) string {
	if id := requestcontext.ClientID(r.Context()); id != "" {
		return id
	}
	return metadata.ClientKeyOf(r.Header)
}

// SetRateLimitHeaders writes X-RateLimit-Limit, -Remaining and -Reset
// (epoch milliseconds).
func SetRateLimitHeaders(w http.ResponseWriter, d *models.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAtMillis(), 10))
}

// RetryAfterSeconds is the Retry-After value for a denied decision; at least 1.
func RetryAfterSeconds(d *models.Decision, now time.Time) int {
	return max(d.RetryAfter(now), 1)
}

// SetDenialHeaders writes Retry-After and the X-RateLimit-* headers for a
// denied decision and returns the Retry-After seconds.
func SetDenialHeaders(w http.ResponseWriter, d *models.Decision, now time.Time) int {
	retryAfter := RetryAfterSeconds(d, now)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAtMillis(), 10))
	return retryAfter
}

// WriteRateLimitExceeded writes the 429 response for a denied decision.
func WriteRateLimitExceeded(w http.ResponseWriter, d *models.Decision, now time.Time, message string) {
	retryAfter := SetDenialHeaders(w, d, now)
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      tooManyRequestsError,
		Message:    message,
		RetryAfter: retryAfter,
	})
}

// GlobalThrottle caps total request throughput for this process with a
// token bucket. A nil limiter disables it.
func GlobalThrottle(limiter *rate.Limiter, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				if m != nil {
					m.IncrementGlobalThrottled()
				}
				if logger != nil {
					logger.WarnContext(r.Context(), "global_throttle_rejected",
						"path", r.URL.Path,
						"request_id", requestcontext.RequestID(r.Context()),
					)
				}
				writeServiceOverloaded(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeServiceOverloaded(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	httputil.WriteJSON(w, http.StatusServiceUnavailable, &models.ServiceOverloadedResponse{
		Error:      "service_unavailable",
		Message:    "Service is temporarily overloaded. Please try again later.",
		RetryAfter: 1,
	})
}
