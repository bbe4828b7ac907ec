// File path: internal/history/enrich_test.go
package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openassess/asset-history/internal/config"
	"github.com/openassess/asset-history/internal/deploy"
	"github.com/openassess/asset-history/internal/github"
)

type fakeDetails struct {
	mu      sync.Mutex
	details map[string]*github.CommitDetail
	errs    map[string]error
	calls   int
}

func (f *fakeDetails) GetCommit(ctx context.Context, owner, repo, sha string) (*github.CommitDetail, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err, ok := f.errs[sha]; ok {
		return nil, err
	}
	if d, ok := f.details[sha]; ok {
		return d, nil
	}
	return &github.CommitDetail{SHA: sha}, nil
}

type fixedSummarizer struct {
	mu    sync.Mutex
	calls int
	text  string
}

func (s *fixedSummarizer) Summarize(ctx context.Context, headline string, files []github.FileDiff) *string {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.text == "" {
		return nil
	}
	t := s.text
	return &t
}

type memAudit struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemAudit() *memAudit { return &memAudit{entries: map[string]string{}} }

func (a *memAudit) Lookup(ctx context.Context, sha string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.entries[sha]
	return s, ok, nil
}

func (a *memAudit) Record(ctx context.Context, sha, summary string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[sha] = summary
	return nil
}

func window(dates ...time.Time) []Commit {
	out := make([]Commit, 0, len(dates))
	for i, d := range dates {
		out = append(out, Commit{SHA: string(rune('a'+i)) + "-sha", Date: d, Headline: "h"})
	}
	return out
}

func testAccumulator() *deploy.Accumulator {
	return deploy.NewAccumulator(config.BucketConfig{
		CSVObject:   "translations/item-bank-translations.csv",
		XLIFFPrefix: "surveys/",
	}, "item-bank-translations.csv")
}

func TestEnrichAttachesSummariesAndTargets(t *testing.T) {
	now := time.Now().UTC()
	commits := window(now, now.Add(-time.Hour))
	details := &fakeDetails{details: map[string]*github.CommitDetail{
		"a-sha": {Files: []github.FileDiff{
			{Filename: "translations/item-bank-translations.csv", Additions: 1},
			{Filename: "surveys/survey.de-DE.xliff", Additions: 2},
		}},
		"b-sha": {Files: []github.FileDiff{{Filename: "README.md"}}},
	}}
	summarizer := &fixedSummarizer{text: "did things"}
	acc := testAccumulator()

	NewEnricher(details, summarizer, nil, 1).Enrich(context.Background(), "o", "r", commits, acc)

	if commits[0].Summary == nil || *commits[0].Summary != "did things" {
		t.Fatalf("summary not attached: %v", commits[0].Summary)
	}
	if got := commits[0].Files(); len(got) != 2 {
		t.Fatalf("expected two diffs attached, got %v", got)
	}
	if len(commits[0].DeploymentTargets) != 2 {
		t.Fatalf("expected two targets, got %v", commits[0].DeploymentTargets)
	}
	if len(commits[1].DeploymentTargets) != 0 {
		t.Fatalf("README must map to no target")
	}
	if len(acc.Targets()) != 2 {
		t.Fatalf("accumulator must hold both targets")
	}
}

func TestEnrichDetailFailureIsNonFatal(t *testing.T) {
	commits := window(time.Now())
	details := &fakeDetails{errs: map[string]error{"a-sha": errors.New("boom")}}
	summarizer := &fixedSummarizer{text: "x"}

	NewEnricher(details, summarizer, nil, 1).Enrich(context.Background(), "o", "r", commits, testAccumulator())

	if commits[0].Summary != nil {
		t.Fatalf("failed detail fetch must leave summary nil")
	}
	if commits[0].Files() != nil {
		t.Fatalf("failed detail fetch must leave no diffs")
	}
	if summarizer.calls != 0 {
		t.Fatalf("summarizer must not run without files")
	}
}

func TestEnrichAuditReadThrough(t *testing.T) {
	commits := window(time.Now())
	audit := newMemAudit()
	audit.entries["a-sha"] = "cached summary"
	summarizer := &fixedSummarizer{text: "fresh"}

	NewEnricher(&fakeDetails{}, summarizer, audit, 1).Enrich(context.Background(), "o", "r", commits, nil)

	if commits[0].Summary == nil || *commits[0].Summary != "cached summary" {
		t.Fatalf("expected audit hit, got %v", commits[0].Summary)
	}
	if summarizer.calls != 0 {
		t.Fatalf("audit hit must skip the synthesizer")
	}
}

func TestEnrichAuditWriteBehind(t *testing.T) {
	commits := window(time.Now())
	audit := newMemAudit()
	summarizer := &fixedSummarizer{text: "fresh"}

	NewEnricher(&fakeDetails{}, summarizer, audit, 1).Enrich(context.Background(), "o", "r", commits, nil)

	if got := audit.entries["a-sha"]; got != "fresh" {
		t.Fatalf("expected write-behind, got %q", got)
	}
}

func TestEnrichPreservesOrderWithWorkers(t *testing.T) {
	now := time.Now().UTC()
	commits := window(now, now.Add(-1*time.Hour), now.Add(-2*time.Hour), now.Add(-3*time.Hour))
	before := shas(commits)

	NewEnricher(&fakeDetails{}, &fixedSummarizer{text: "s"}, nil, 4).Enrich(context.Background(), "o", "r", commits, nil)

	if got := shas(commits); !equalStrings(got, before) {
		t.Fatalf("order changed: %v vs %v", got, before)
	}
	for i := range commits {
		if commits[i].Summary == nil {
			t.Fatalf("commit %d not enriched", i)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
