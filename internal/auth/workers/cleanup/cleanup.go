// Package cleanup removes ended sessions and spent reset tokens from the
// development identity provider on a timer.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Purger deletes expired records and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Target names a Purger for logs and results.
type Target struct {
	Name   string
	Purger Purger
}

// CleanupResult maps target name to records removed in one run.
type CleanupResult struct {
	Deleted map[string]int
}

// Total returns the records removed across all targets.
func (r CleanupResult) Total() int {
	total := 0
	for _, n := range r.Deleted {
		total += n
	}
	return total
}

// CleanupService periodically purges each target.
type CleanupService struct {
	targets  []Target
	interval time.Duration
	logger   *slog.Logger
}

type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(targets []Target, opts ...CleanupOption) (*CleanupService, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one cleanup target is required")
	}
	for _, t := range targets {
		if t.Purger == nil || t.Name == "" {
			return nil, fmt.Errorf("cleanup target needs a name and purger")
		}
	}
	svc := &CleanupService{
		targets:  targets,
		interval: 5 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "auth cleanup failed", "error", err)
				continue
			}
			if total := res.Total(); total > 0 {
				s.logger.InfoContext(ctx, "auth cleanup completed", "deleted", total)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce purges every target. Failures are joined; counts from targets that
// succeeded are still reported.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	res := CleanupResult{Deleted: make(map[string]int, len(s.targets))}
	var errs []error
	for _, t := range s.targets {
		n, err := t.Purger.PurgeExpired(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", t.Name, err))
			continue
		}
		res.Deleted[t.Name] = n
	}
	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}
