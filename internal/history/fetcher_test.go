// File path: internal/history/fetcher_test.go
package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openassess/asset-history/internal/github"
)

type fakeLister struct {
	byPath map[string][]github.Commit
	errs   map[string]error
	calls  []string
}

func (f *fakeLister) ListCommits(ctx context.Context, owner, repo string, opts github.ListCommitsOptions) ([]github.Commit, error) {
	f.calls = append(f.calls, opts.Path)
	if err, ok := f.errs[opts.Path]; ok {
		return nil, err
	}
	return f.byPath[opts.Path], nil
}

func rawCommit(sha string, date time.Time) github.Commit {
	var c github.Commit
	c.SHA = sha
	c.Commit.Message = "change " + sha
	c.Commit.Author.Name = "Dev"
	c.Commit.Author.Email = "dev@example.org"
	c.Commit.Author.Date = date
	c.Commit.Committer.Date = date
	return c
}

func TestCollectMergesAndSorts(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{byPath: map[string][]github.Commit{
		"translations": {rawCommit("aaa", base.Add(2 * time.Hour)), rawCommit("shared", base)},
		"surveys":      {rawCommit("bbb", base.Add(3 * time.Hour)), rawCommit("shared", base)},
	}}
	f := NewFetcher(lister)
	res, err := f.Collect(context.Background(), FetchOptions{
		Owner: "o", Repo: "r", Paths: []string{"translations", "surveys"}, Limit: 10,
	})
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if res.RateLimited {
		t.Fatalf("unexpected rate-limit flag")
	}
	if len(res.Commits) != 3 {
		t.Fatalf("expected dedup to 3 commits, got %d", len(res.Commits))
	}
	if res.Commits[0].SHA != "bbb" || res.Commits[1].SHA != "aaa" || res.Commits[2].SHA != "shared" {
		t.Fatalf("wrong order: %v", shas(res.Commits))
	}
}

func TestCollectLimitAfterMerge(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{byPath: map[string][]github.Commit{
		"a": {rawCommit("a1", base.Add(time.Hour)), rawCommit("a2", base.Add(2 * time.Hour))},
		"b": {rawCommit("b1", base.Add(3 * time.Hour))},
	}}
	res, err := NewFetcher(lister).Collect(context.Background(), FetchOptions{
		Owner: "o", Repo: "r", Paths: []string{"a", "b"}, Limit: 2,
	})
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	// the newest commit from path b must survive even though path a alone
	// could fill the limit
	got := shas(res.Commits)
	if len(got) != 2 || got[0] != "b1" || got[1] != "a2" {
		t.Fatalf("limit must apply after merging, got %v", got)
	}
}

func TestCollectRateLimitAbortsBeforeSecondPath(t *testing.T) {
	lister := &fakeLister{
		byPath: map[string][]github.Commit{"second": {rawCommit("x", time.Now())}},
		errs:   map[string]error{"first": github.ErrRateLimited},
	}
	res, err := NewFetcher(lister).Collect(context.Background(), FetchOptions{
		Owner: "o", Repo: "r", Paths: []string{"first", "second"},
	})
	if !errors.Is(err, github.ErrRateLimited) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if !res.RateLimited {
		t.Fatalf("flag must be set")
	}
	if len(res.Commits) != 0 {
		t.Fatalf("no partial aggregation on rate limit")
	}
	if len(lister.calls) != 1 || lister.calls[0] != "first" {
		t.Fatalf("second path must not be attempted, calls=%v", lister.calls)
	}
}

func TestCollectOmitsFailingPath(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{
		byPath: map[string][]github.Commit{"good": {rawCommit("g1", base)}},
		errs:   map[string]error{"bad": errors.New("boom")},
	}
	res, err := NewFetcher(lister).Collect(context.Background(), FetchOptions{
		Owner: "o", Repo: "r", Paths: []string{"bad", "good"},
	})
	if err != nil {
		t.Fatalf("partial results must be acceptable: %v", err)
	}
	if got := shas(res.Commits); len(got) != 1 || got[0] != "g1" {
		t.Fatalf("expected good path results, got %v", got)
	}
}

func TestCrowdinRelabel(t *testing.T) {
	raw := rawCommit("c1", time.Now())
	raw.Commit.Message = "New translations survey.de-DE.xliff (German)"
	raw.Commit.Author.Name = "Crowdin Bot"
	raw.Commit.Author.Email = "support@crowdin.com"
	raw.Author = &struct {
		Login string `json:"login"`
	}{Login: "crowdin-bot"}

	c := fromAPI(raw)
	if c.Author.Name != "Crowdin" || c.Committer.Name != "Crowdin" {
		t.Fatalf("expected relabel, got %+v", c.Author)
	}
	if c.Author.Email != "" {
		t.Fatalf("personal email must be stripped")
	}
	if c.Author.Login != "crowdin-bot" {
		t.Fatalf("login is kept for traceability")
	}
}

func TestCrowdinRelabelRequiresAutomationIdentity(t *testing.T) {
	raw := rawCommit("c2", time.Now())
	raw.Commit.Message = "New translations for review"
	c := fromAPI(raw)
	if c.Author.Name != "Dev" {
		t.Fatalf("human commits must not be relabeled, got %+v", c.Author)
	}
}

func TestHeadlineStripsPaths(t *testing.T) {
	got := headline("Update translations/item-bank-translations.csv: fix typos\n\nlong body")
	if got != "Update item-bank-translations.csv: fix typos" {
		t.Fatalf("got %q", got)
	}
}

func shas(commits []Commit) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.SHA)
	}
	return out
}
