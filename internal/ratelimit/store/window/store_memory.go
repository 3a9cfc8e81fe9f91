// Package window stores fixed-window request counters in process memory.
package window

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"authgate/internal/ratelimit/models"
	dErrors "authgate/pkg/domain-errors"
)

const shardCount = 32

// InMemoryWindowStore owns every key's counter. Keys are spread over 32
// shards by xxhash; each shard's mutex makes Check's read-modify-write
// atomic for the keys it holds.
type InMemoryWindowStore struct {
	shards [shardCount]shard
	now    func() time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*models.Entry
}

type Option func(*InMemoryWindowStore)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryWindowStore) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *InMemoryWindowStore {
	s := &InMemoryWindowStore{now: time.Now}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*models.Entry)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryWindowStore) shardFor(key string) *shard {
	return &s.shards[xxhash.Sum64String(key)%shardCount]
}

// Check counts one request against key under policy.
//
// An absent or expired entry is replaced by a fresh window holding this
// request. An exhausted entry is left untouched so denials never extend the
// window. Otherwise the count is incremented.
func (s *InMemoryWindowStore) Check(_ context.Context, key string, policy models.Policy) (*models.Decision, error) {
	if key == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rate limit key is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	entry, ok := sh.entries[key]
	if !ok || entry.ExpiredAt(now) {
		entry = &models.Entry{Key: key, Count: 1, WindowResetAt: now.Add(policy.Window)}
		sh.entries[key] = entry
		return &models.Decision{
			Allowed:   true,
			Limit:     policy.Limit,
			Remaining: policy.Limit - 1,
			ResetAt:   entry.WindowResetAt,
		}, nil
	}

	if entry.Count >= policy.Limit {
		return &models.Decision{
			Allowed:   false,
			Limit:     policy.Limit,
			Remaining: 0,
			ResetAt:   entry.WindowResetAt,
		}, nil
	}

	entry.Count++
	return &models.Decision{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit - entry.Count,
		ResetAt:   entry.WindowResetAt,
	}, nil
}

// Reset removes key. Removing an absent key is a no-op.
func (s *InMemoryWindowStore) Reset(_ context.Context, key string) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.entries, key)
	return nil
}

// Clear removes every key.
func (s *InMemoryWindowStore) Clear(_ context.Context) error {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		clear(sh.entries)
		sh.mu.Unlock()
	}
	return nil
}

// Peek returns a copy of key's entry without counting a request. Expired
// entries are reported as absent.
func (s *InMemoryWindowStore) Peek(_ context.Context, key string) (*models.Entry, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[key]
	if !ok || entry.ExpiredAt(s.now()) {
		return nil, false
	}
	cp := *entry
	return &cp, true
}

// Sweep deletes entries whose window has elapsed and returns how many were
// removed. It stops early if ctx is cancelled.
func (s *InMemoryWindowStore) Sweep(ctx context.Context) (int, error) {
	pruned := 0
	for i := range s.shards {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}
		sh := &s.shards[i]
		sh.mu.Lock()
		now := s.now()
		for key, entry := range sh.entries {
			if entry.ExpiredAt(now) {
				delete(sh.entries, key)
				pruned++
			}
		}
		sh.mu.Unlock()
	}
	return pruned, nil
}

// Len returns the number of physically stored entries, expired or not.
func (s *InMemoryWindowStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
