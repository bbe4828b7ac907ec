// File path: internal/cache/cache_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewMemoryWithClock(clock)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 10*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, ok := c.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v", got, ok)
	}

	now = now.Add(10*time.Minute + time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	// the expired entry must have been evicted, not just hidden
	if len(c.entries) != 0 {
		t.Fatalf("expected eviction on access, have %d entries", len(c.entries))
	}
}

func TestMemoryZeroTTLStoresNothing(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("zero ttl must not store")
	}
}

func TestRedisRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := NewRedisWithClient(client)
	ctx := context.Background()

	if err := c.Set(ctx, "url", "header-bytes", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, ok := c.Get(ctx, "url")
	if !ok || got != "header-bytes" {
		t.Fatalf("expected hit, got %q ok=%v", got, ok)
	}

	srv.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "url"); ok {
		t.Fatalf("expected miss after ttl")
	}
}
