package admin

import (
	"context"
	"time"

	"authgate/pkg/platform/audit"
)

// AccountStats reports identity provider record counts.
type AccountStats interface {
	Stats() (accounts, sessions, resetTokens int)
}

// Counter reports the size of an in-memory store.
type Counter interface {
	Len() int
}

// AuditSource returns recent audit events, newest first.
type AuditSource interface {
	Recent(limit int) []audit.Event
}

// CounterFunc adapts a plain count method to Counter.
type CounterFunc func() int

func (f CounterFunc) Len() int { return f() }

// Service aggregates operator statistics across the auth and rate limit stores.
type Service struct {
	accounts   AccountStats
	profiles   Counter
	rateLimits Counter
	audit      AuditSource
	now        func() time.Time
}

func NewService(accounts AccountStats, profiles, rateLimits Counter, auditSource AuditSource) *Service {
	return &Service{
		accounts:   accounts,
		profiles:   profiles,
		rateLimits: rateLimits,
		audit:      auditSource,
		now:        time.Now,
	}
}

type Stats struct {
	TotalAccounts      int       `json:"total_accounts"`
	Profiles           int       `json:"profiles"`
	ActiveSessions     int       `json:"active_sessions"`
	PendingResetTokens int       `json:"pending_reset_tokens"`
	RateLimitKeys      int       `json:"rate_limit_keys"`
	RecentFailedLogins int       `json:"recent_failed_logins"`
	RecentThrottled    int       `json:"recent_reset_throttled"`
	Timestamp          time.Time `json:"timestamp"`
}

// GetStats counts live records. The Recent* fields only cover events still in
// the audit buffer.
func (s *Service) GetStats(_ context.Context) (*Stats, error) {
	stats := &Stats{Timestamp: s.now()}
	if s.accounts != nil {
		stats.TotalAccounts, stats.ActiveSessions, stats.PendingResetTokens = s.accounts.Stats()
	}
	if s.profiles != nil {
		stats.Profiles = s.profiles.Len()
	}
	if s.rateLimits != nil {
		stats.RateLimitKeys = s.rateLimits.Len()
	}
	if s.audit != nil {
		for _, event := range s.audit.Recent(0) {
			switch audit.Action(event.Action) {
			case audit.EventAuthFailed:
				stats.RecentFailedLogins++
			case audit.EventPasswordResetThrottled:
				stats.RecentThrottled++
			}
		}
	}
	return stats, nil
}

// GetRecentAuditEvents returns up to limit events, newest first.
func (s *Service) GetRecentAuditEvents(_ context.Context, limit int) ([]audit.Event, error) {
	if s.audit == nil {
		return []audit.Event{}, nil
	}
	return s.audit.Recent(limit), nil
}
