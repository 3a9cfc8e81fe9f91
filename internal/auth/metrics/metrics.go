package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the auth counters.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnverified  = "unverified"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// Metrics holds Prometheus collectors for auth operations.
type Metrics struct {
	UsersCreated          prometheus.Counter
	LoginAttempts         *prometheus.CounterVec
	PasswordResetRequests *prometheus.CounterVec
	PasswordResets        *prometheus.CounterVec
	ProviderDuration      *prometheus.HistogramVec
}

// New registers auth collectors with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_users_created_total",
			Help: "Total number of users created by registration or first OAuth login",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_login_attempts_total",
			Help: "Total number of login attempts by method and outcome",
		}, []string{"method", "outcome"}),
		PasswordResetRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_password_reset_requests_total",
			Help: "Total number of password reset requests by outcome",
		}, []string{"outcome"}),
		PasswordResets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_password_resets_total",
			Help: "Total number of password updates via reset token by outcome",
		}, []string{"outcome"}),
		ProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authgate_auth_provider_duration_seconds",
			Help:    "Latency of identity provider calls in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementLogin(method, outcome string) {
	m.LoginAttempts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) IncrementResetRequest(outcome string) {
	m.PasswordResetRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPasswordReset(outcome string) {
	m.PasswordResets.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveProvider(operation string, elapsed time.Duration) {
	m.ProviderDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
