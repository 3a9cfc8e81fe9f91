package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"authgate/internal/ratelimit/metrics"
	"authgate/internal/ratelimit/models"
	"authgate/internal/ratelimit/service"
	"authgate/internal/ratelimit/store/window"
	"authgate/pkg/platform/middleware/metadata"
)

// =============================================================================
// Rate Limit Middleware Suite
// =============================================================================
// Justification: the wrapper is the only place decisions become HTTP
// responses, so header values and short-circuiting are asserted end to end
// against the real window store.

type MiddlewareSuite struct {
	suite.Suite
	logger  *slog.Logger
	limiter *service.Service
	mw      *Middleware
	calls   int
	inner   http.Handler
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter, err := service.New(window.New(), service.WithLogger(s.logger))
	s.Require().NoError(err)
	s.limiter = limiter
	s.mw = New(limiter, s.logger)
	s.calls = 0
	s.inner = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":"success"}`))
	})
}

func (s *MiddlewareSuite) do(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (s *MiddlewareSuite) TestWrapperAllowsThenDenies() {
	h := s.mw.WithRateLimit(models.Policy{Limit: 2, Window: time.Minute})(s.inner)

	first := s.do(h, "/api/test", nil)
	s.Equal(http.StatusOK, first.Code)
	s.Equal("2", first.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", first.Header().Get("X-RateLimit-Remaining"))
	s.NotEmpty(first.Header().Get("X-RateLimit-Reset"))

	second := s.do(h, "/api/test", nil)
	s.Equal(http.StatusOK, second.Code)
	s.Equal("0", second.Header().Get("X-RateLimit-Remaining"))

	third := s.do(h, "/api/test", nil)
	s.Equal(http.StatusTooManyRequests, third.Code)
	s.Equal(2, s.calls, "inner handler must not run for a denied request")

	var body models.RateLimitExceededResponse
	s.Require().NoError(json.Unmarshal(third.Body.Bytes(), &body))
	s.Equal("Too Many Requests", body.Error)
	s.NotEmpty(body.Message)
	s.Positive(body.RetryAfter)

	s.Equal("0", third.Header().Get("X-RateLimit-Remaining"))
	s.Equal("2", third.Header().Get("X-RateLimit-Limit"))
	s.Equal(strconv.Itoa(body.RetryAfter), third.Header().Get("Retry-After"))
	s.Equal("application/json", third.Header().Get("Content-Type"))
}

func (s *MiddlewareSuite) TestResetHeaderIsEpochMillis() {
	h := s.mw.WithRateLimit(models.Policy{Limit: 1, Window: time.Minute})(s.inner)
	before := time.Now()

	rec := s.do(h, "/api/test", nil)

	reset, err := strconv.ParseInt(rec.Header().Get("X-RateLimit-Reset"), 10, 64)
	s.Require().NoError(err)
	s.GreaterOrEqual(reset, before.Add(time.Minute).UnixMilli())
	s.LessOrEqual(reset, time.Now().Add(time.Minute).UnixMilli())
}

func (s *MiddlewareSuite) TestDenialBodyExposesNoCounters() {
	h := s.mw.WithRateLimit(models.Policy{Limit: 1, Window: time.Minute})(s.inner)
	s.do(h, "/api/test", nil)

	rec := s.do(h, "/api/test", nil)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.ElementsMatch([]string{"error", "message", "retryAfter"}, keysOf(body))
}

func (s *MiddlewareSuite) TestClientsAndPathsAreIsolated() {
	h := s.mw.WithRateLimit(models.Policy{Limit: 1, Window: time.Minute})(s.inner)

	s.Equal(http.StatusOK, s.do(h, "/api/a", map[string]string{"X-Forwarded-For": "198.51.100.1"}).Code)
	s.Equal(http.StatusOK, s.do(h, "/api/a", map[string]string{"X-Forwarded-For": "198.51.100.2"}).Code)
	s.Equal(http.StatusOK, s.do(h, "/api/b", map[string]string{"X-Forwarded-For": "198.51.100.1"}).Code)
	s.Equal(http.StatusTooManyRequests, s.do(h, "/api/a", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}).Code)

	_, ok := s.limiter.Peek(context.Background(), "rate-limit:198.51.100.1:/api/a")
	s.True(ok)
}

func (s *MiddlewareSuite) TestMetadataContextWinsOverHeaders() {
	h := metadata.Handler(s.mw.WithRateLimit(models.Policy{Limit: 1, Window: time.Minute})(s.inner))

	s.do(h, "/api/a", map[string]string{"X-Real-IP": "10.0.0.5"})

	_, ok := s.limiter.Peek(context.Background(), "rate-limit:10.0.0.5:/api/a")
	s.True(ok)
}

func (s *MiddlewareSuite) TestRouteClassUsesConfiguredPolicy() {
	h := s.mw.RouteClass(models.ClassAuth)(s.inner)

	for range 5 {
		s.Equal(http.StatusOK, s.do(h, "/api/auth/login", nil).Code)
	}
	rec := s.do(h, "/api/auth/login", nil)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("5", rec.Header().Get("X-RateLimit-Limit"))
}

func (s *MiddlewareSuite) TestMalformedPolicyFailsClosed() {
	h := s.mw.WithRateLimit(models.Policy{Limit: 0, Window: time.Minute})(s.inner)

	rec := s.do(h, "/api/test", nil)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(0, s.calls)
}

func (s *MiddlewareSuite) TestUnknownRouteClassFailsClosed() {
	h := s.mw.RouteClass(models.RouteClass("bulk"))(s.inner)

	rec := s.do(h, "/api/test", nil)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(0, s.calls)
}

func (s *MiddlewareSuite) TestInnerPanicPropagates() {
	h := s.mw.WithRateLimit(models.Policy{Limit: 5, Window: time.Minute})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	s.Panics(func() { s.do(h, "/api/test", nil) })
}

func (s *MiddlewareSuite) TestPackageLevelWithRateLimit() {
	h := WithRateLimit(s.limiter, models.Policy{Limit: 1, Window: time.Minute})(s.inner)

	s.Equal(http.StatusOK, s.do(h, "/api/x", nil).Code)
	s.Equal(http.StatusTooManyRequests, s.do(h, "/api/x", nil).Code)
}

// =============================================================================
// Limiter error handling
// =============================================================================

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, models.Policy) (*models.Decision, error) {
	return nil, errors.New("store offline")
}

func (failingLimiter) PolicyFor(models.RouteClass) (models.Policy, error) {
	return models.Policy{Limit: 1, Window: time.Second}, nil
}

func TestLimiterErrorReturns500(t *testing.T) {
	called := false
	h := New(failingLimiter{}, slog.New(slog.NewTextHandler(io.Discard, nil))).
		RouteClass(models.ClassGeneral)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
	assert.NotContains(t, rec.Body.String(), "store offline")
}

func TestRetryAfterSecondsFloor(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1, RetryAfterSeconds(&models.Decision{ResetAt: now}, now))
	assert.Equal(t, 60, RetryAfterSeconds(&models.Decision{ResetAt: now.Add(59500 * time.Millisecond)}, now))
}

func TestClientKeyOfDelegates(t *testing.T) {
	h := http.Header{}
	h.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
	assert.Equal(t, "192.168.1.1", ClientKeyOf(h))
	assert.Equal(t, "unknown", ClientKeyOf(http.Header{}))
}

// =============================================================================
// Global throttle
// =============================================================================

func TestGlobalThrottle(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	h := GlobalThrottle(limiter, m, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RateLimitGlobalThrottledTotal))
}

func TestGlobalThrottleDisabled(t *testing.T) {
	h := GlobalThrottle(nil, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	for range 10 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
