package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitDecisionsTotal         *prometheus.CounterVec
	RateLimitTrackedKeys            prometheus.Gauge
	RateLimitCleanupPrunedTotal     prometheus.Counter
	RateLimitCleanupRunsTotal       *prometheus.CounterVec
	RateLimitCleanupDurationSeconds prometheus.Histogram
	RateLimitGlobalThrottledTotal   prometheus.Counter
}

// New registers the limiter metrics with the default registry. Call it once
// per process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers against reg, letting tests use an isolated
// prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RateLimitDecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_ratelimit_decisions_total",
			Help: "Total number of rate limit decisions by route class and outcome",
		}, []string{"class", "outcome"}),
		RateLimitTrackedKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "authgate_ratelimit_tracked_keys",
			Help: "Number of keys physically held by the limiter after the last sweep",
		}),
		RateLimitCleanupPrunedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_ratelimit_cleanup_pruned_total",
			Help: "Total number of expired entries removed by the cleanup worker",
		}),
		RateLimitCleanupRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_ratelimit_cleanup_runs_total",
			Help: "Total number of cleanup runs",
		}, []string{"status"}),
		RateLimitCleanupDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "authgate_ratelimit_cleanup_duration_seconds",
			Help: "Duration of cleanup runs in seconds",
		}),
		RateLimitGlobalThrottledTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_ratelimit_global_throttled_total",
			Help: "Total number of requests rejected by the global throttle",
		}),
	}
}

func (m *Metrics) IncrementDecision(class, outcome string) {
	m.RateLimitDecisionsTotal.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) SetTrackedKeys(count int) {
	m.RateLimitTrackedKeys.Set(float64(count))
}

func (m *Metrics) IncrementCleanupPruned(count int) {
	m.RateLimitCleanupPrunedTotal.Add(float64(count))
}

func (m *Metrics) IncrementCleanupRuns(status string) {
	m.RateLimitCleanupRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCleanupDuration(durationSeconds float64) {
	m.RateLimitCleanupDurationSeconds.Observe(durationSeconds)
}

func (m *Metrics) IncrementGlobalThrottled() {
	m.RateLimitGlobalThrottledTotal.Inc()
}
