package audit

import (
	"context"
	"sync"
)

const DefaultBufferSize = 256

// Buffer keeps the most recent events in memory for the admin API.
type Buffer struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewBuffer holds up to size events; non-positive sizes use DefaultBufferSize.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{events: make([]Event, size)}
}

func (b *Buffer) Emit(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[b.next] = event
	b.next = (b.next + 1) % len(b.events)
	if b.next == 0 {
		b.full = true
	}
	return nil
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (b *Buffer) Recent(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := b.next
	if b.full {
		count = len(b.events)
	}
	if limit <= 0 || limit > count {
		limit = count
	}
	out := make([]Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (b.next - i + len(b.events)) % len(b.events)
		out = append(out, b.events[idx])
	}
	return out
}
