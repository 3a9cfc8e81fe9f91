package service

//go:generate mockgen -source=../ports/ports.go -destination=mocks/mocks.go -package=mocks WindowStore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"authgate/internal/ratelimit/config"
	"authgate/internal/ratelimit/metrics"
	"authgate/internal/ratelimit/models"
	"authgate/internal/ratelimit/service/mocks"
	"authgate/internal/ratelimit/store/window"
	dErrors "authgate/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockWindowStore
	metrics *metrics.Metrics
	svc     *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockWindowStore(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.ctx = context.Background()

	svc, err := New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCheckClientBuildsRouteKeyAndClassPolicy() {
	resetAt := time.Now().Add(time.Minute)
	s.store.EXPECT().
		Check(gomock.Any(), "rate-limit:192.168.1.1:/api/auth/login", models.Policy{Limit: 5, Window: time.Minute}).
		Return(&models.Decision{Allowed: true, Limit: 5, Remaining: 4, ResetAt: resetAt}, nil)

	d, err := s.svc.CheckClient(s.ctx, "192.168.1.1", "/api/auth/login", models.ClassAuth)
	s.Require().NoError(err)
	s.True(d.Allowed)
	s.Equal(4, d.Remaining)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RateLimitDecisionsTotal.WithLabelValues("auth", "allowed")))
}

func (s *ServiceSuite) TestDeniedDecisionIsNotAnError() {
	s.store.EXPECT().Check(gomock.Any(), "reset-password-email:a@example.com", gomock.Any()).
		Return(&models.Decision{Allowed: false, Limit: 3, Remaining: 0, ResetAt: time.Now().Add(time.Hour)}, nil)

	d, err := s.svc.CheckClass(s.ctx, "reset-password-email:a@example.com", models.ClassResetEmail)
	s.Require().NoError(err)
	s.False(d.Allowed)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RateLimitDecisionsTotal.WithLabelValues("reset_email", "denied")))
}

func (s *ServiceSuite) TestMalformedPolicyFailsFastWithoutStoreCall() {
	_, err := s.svc.Check(s.ctx, "k", models.Policy{Limit: 0, Window: time.Minute})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestUnknownClass() {
	_, err := s.svc.CheckClass(s.ctx, "k", models.RouteClass("bulk"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestStoreErrorWrappedAsInternal() {
	s.store.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	_, err := s.svc.Check(s.ctx, "k", models.Policy{Limit: 1, Window: time.Second})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RateLimitDecisionsTotal.WithLabelValues("custom", "error")))
}

func (s *ServiceSuite) TestResetRequiresKey() {
	err := s.svc.Reset(s.ctx, "  ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestResetAndClearDelegate() {
	s.store.EXPECT().Reset(gomock.Any(), "rate-limit:1.2.3.4:/api/x").Return(nil)
	s.store.EXPECT().Clear(gomock.Any()).Return(nil)

	s.NoError(s.svc.Reset(s.ctx, "rate-limit:1.2.3.4:/api/x"))
	s.NoError(s.svc.Clear(s.ctx))
}

func (s *ServiceSuite) TestWithConfigOverridesClasses() {
	cfg := config.DefaultConfig()
	cfg.OverrideGeneral(100, 30*time.Second)
	svc, err := New(s.store, WithConfig(cfg))
	s.Require().NoError(err)

	s.store.EXPECT().Check(gomock.Any(), gomock.Any(), models.Policy{Limit: 100, Window: 30 * time.Second}).
		Return(&models.Decision{Allowed: true, Limit: 100, Remaining: 99}, nil)

	_, err = svc.CheckClient(s.ctx, "unknown", "/api/health", models.ClassGeneral)
	s.NoError(err)
}

func TestServiceWithWindowStore(t *testing.T) {
	svc, err := New(window.New())
	require.NoError(t, err)
	ctx := context.Background()
	policy := models.Policy{Limit: 5, Window: time.Minute}

	for _, want := range []int{4, 3, 2, 1, 0} {
		d, err := svc.Check(ctx, "scenario-a", policy)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, want, d.Remaining)
	}
	d, err := svc.Check(ctx, "scenario-a", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	require.NoError(t, svc.Reset(ctx, "scenario-a"))
	d, err = svc.Check(ctx, "scenario-a", policy)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Remaining)

	require.NoError(t, svc.Clear(ctx))
	_, ok := svc.Peek(ctx, "scenario-a")
	assert.False(t, ok)
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "rate-limit:192.168.1.0:/api/auth/login", redactKey("rate-limit:192.168.1.77:/api/auth/login"))
	assert.Equal(t, "rate-limit:unknown:/api/health", redactKey("rate-limit:unknown:/api/health"))
	assert.Equal(t, "reset-password-email:a***@example.com", redactKey("reset-password-email:alice@example.com"))
	assert.Equal(t, "custom:***", redactKey("custom:secret-value"))
}
