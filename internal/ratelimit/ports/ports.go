// Package ports defines shared interfaces for the ratelimit module.
package ports

import (
	"context"

	"authgate/internal/ratelimit/models"
)

// WindowStore owns fixed-window counters keyed by opaque strings.
type WindowStore interface {
	// Check counts one request against key and reports whether it is allowed.
	Check(ctx context.Context, key string, policy models.Policy) (*models.Decision, error)

	// Reset removes the counter for key.
	Reset(ctx context.Context, key string) error

	// Clear removes every counter.
	Clear(ctx context.Context) error

	// Peek returns the live entry for key without counting a request.
	Peek(ctx context.Context, key string) (*models.Entry, bool)

	// Sweep prunes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Len returns the number of stored entries.
	Len() int
}
