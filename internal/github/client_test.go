// File path: internal/github/client_test.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openassess/asset-history/internal/cache"
)

func TestListCommitsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ListCommits(context.Background(), "o", "r", ListCommitsOptions{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestForbiddenWithQuotaIsPlainAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"saml enforcement"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ListCommits(context.Background(), "o", "r", ListCommitsOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected APIError 403, got %v", err)
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatalf("403 with remaining quota is not a rate limit")
	}
}

func TestListCommitsQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]Commit{})
	}))
	defer srv.Close()

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewClient(srv.URL, "tok")
	_, err := c.ListCommits(context.Background(), "o", "r", ListCommitsOptions{
		Branch: "main", Path: "translations", Since: since,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	q, err := url.ParseQuery(gotQuery)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if q.Get("sha") != "main" || q.Get("path") != "translations" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if q.Get("since") != "2024-06-01T00:00:00Z" {
		t.Fatalf("unexpected since %q", q.Get("since"))
	}
}

func TestFetchRawHeadUsesCache(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.Header.Get("Range") == "" {
			t.Errorf("expected ranged request")
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("item_id,labels,en\nrow"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithRawBaseURL(srv.URL), WithCache(cache.NewMemory(), time.Minute))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		head, err := c.FetchRawHead(ctx, "o", "r", "main", "translations/t.csv", 1024)
		if err != nil {
			t.Fatalf("fetch %d failed: %v", i, err)
		}
		if head != "item_id,labels,en\nrow" {
			t.Fatalf("unexpected body %q", head)
		}
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", hits)
	}
}

func TestCommitDateFallsBackToAuthor(t *testing.T) {
	var c Commit
	c.Commit.Author.Date = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !c.Date().Equal(c.Commit.Author.Date) {
		t.Fatalf("expected author date fallback")
	}
}
