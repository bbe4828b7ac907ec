// File path: internal/sqlite/store_test.go
package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, found, err := store.Lookup(ctx, "abc"); err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}
	if err := store.Record(ctx, "abc", "Updated item1"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	got, found, err := store.Lookup(ctx, "abc")
	if err != nil || !found || got != "Updated item1" {
		t.Fatalf("lookup = %q,%v,%v", got, found, err)
	}
}

func TestRecordKeepsFirstWrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, "abc", "first"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := store.Record(ctx, "abc", "second"); err != nil {
		t.Fatalf("replay must not error: %v", err)
	}
	got, _, err := store.Lookup(ctx, "abc")
	if err != nil || got != "first" {
		t.Fatalf("expected first write to win, got %q err=%v", got, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}
