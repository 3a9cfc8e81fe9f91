// Package cleanup prunes expired rate limit entries on a timer. The store
// expires entries lazily, so keys that are never revisited would otherwise
// stay in memory for the life of the process.
package cleanup

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"authgate/internal/ratelimit/metrics"
)

// CleanupResult contains the results of a cleanup run.
type CleanupResult struct {
	EntriesPruned int
	EntriesLeft   int
	Duration      time.Duration
}

// WindowStore is the subset of the limiter store the sweeper needs.
type WindowStore interface {
	Sweep(ctx context.Context) (int, error)
	Len() int
}

type Option func(*SweepService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *SweepService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *SweepService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SweepService) {
		s.metrics = m
	}
}

type SweepService struct {
	store    WindowStore
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics

	lastRun atomic.Int64 // unix nanos of the last successful run
}

func New(store WindowStore, opts ...Option) *SweepService {
	service := &SweepService{
		store:    store,
		logger:   slog.Default(),
		interval: time.Minute,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Interval returns the configured sweep period.
func (s *SweepService) Interval() time.Duration {
	return s.interval
}

// LastRun returns when the last successful sweep finished, or the zero time.
func (s *SweepService) LastRun() time.Time {
	n := s.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Start sweeps every interval until ctx is cancelled and returns ctx.Err().
func (s *SweepService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.logger.Error("ratelimit_sweep_failed", "error", err)
				continue
			}
			s.logger.Info("ratelimit_sweep_completed",
				"entries_pruned", res.EntriesPruned,
				"entries_left", res.EntriesLeft,
				"duration_ms", res.Duration.Milliseconds(),
			)

		case <-ctx.Done():
			s.logger.Info("ratelimit sweep worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep and records metrics.
func (s *SweepService) RunOnce(ctx context.Context) (*CleanupResult, error) {
	start := time.Now()
	pruned, err := s.store.Sweep(ctx)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.ObserveCleanupDuration(duration.Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementCleanupRuns("error")
		}
		return nil, err
	}

	left := s.store.Len()
	s.lastRun.Store(time.Now().UnixNano())
	if s.metrics != nil {
		s.metrics.IncrementCleanupRuns("success")
		s.metrics.IncrementCleanupPruned(pruned)
		s.metrics.SetTrackedKeys(left)
	}
	return &CleanupResult{EntriesPruned: pruned, EntriesLeft: left, Duration: duration}, nil
}
