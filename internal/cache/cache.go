// File path: internal/cache/cache.go
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a read-through TTL cache for idempotent upstream fetches, keyed by
// URL. Implementations must be safe for concurrent use; callers racing to
// populate the same key simply perform redundant fetches.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type entry struct {
	value   string
	expires time.Time
}

// Memory is an in-process Cache with expiry checked on access. The clock is
// injectable so tests can verify eviction without real time passing.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
}

// NewMemory constructs an in-process cache using the wall clock.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock constructs an in-process cache with the given clock.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{now: now, entries: make(map[string]entry)}
}

// Get returns the cached value if present and unexpired. An expired entry is
// removed on access.
func (m *Memory) Get(ctx context.Context, key string) (string, bool) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores the value until now+ttl. A non-positive ttl stores nothing.
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = ctx
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expires: m.now().Add(ttl)}
	return nil
}
