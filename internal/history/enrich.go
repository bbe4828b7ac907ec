// File path: internal/history/enrich.go
package history

import (
	"context"
	"sync"

	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/deploy"
	"github.com/openassess/asset-history/internal/github"
)

// DetailFetcher is the slice of the hosting client that loads one commit's
// file-level diff.
type DetailFetcher interface {
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.CommitDetail, error)
}

// Summarizer derives a display summary from a commit's diffs, nil when
// nothing useful can be said.
type Summarizer interface {
	Summarize(ctx context.Context, headline string, files []github.FileDiff) *string
}

// AuditStore persists computed summaries keyed by sha. A commit's summary is
// immutable once derived, so replays skip the synthesizer entirely.
type AuditStore interface {
	Lookup(ctx context.Context, sha string) (string, bool, error)
	Record(ctx context.Context, sha, summary string) error
}

// Enricher attaches diffs, summaries and deployment-target keys to a
// collected commit window.
type Enricher struct {
	details    DetailFetcher
	summarizer Summarizer
	audit      AuditStore
	workers    int
}

// NewEnricher builds an Enricher. audit may be nil. workers bounds concurrent
// detail fetches; values below 1 collapse to the sequential default.
func NewEnricher(details DetailFetcher, summarizer Summarizer, audit AuditStore, workers int) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{details: details, summarizer: summarizer, audit: audit, workers: workers}
}

// Enrich runs the per-commit detail/summary phase through the bounded worker
// pool, then feeds the accumulator sequentially so target bookkeeping stays
// single-threaded. Commit order is preserved regardless of pool size. A
// failed detail fetch leaves that commit with a nil summary and no files;
// the commit is still part of the response.
func (e *Enricher) Enrich(ctx context.Context, owner, repo string, commits []Commit, acc *deploy.Accumulator) {
	if len(commits) == 0 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				e.enrichOne(ctx, owner, repo, &commits[i])
			}
		}()
	}
	for i := range commits {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if acc == nil {
		return
	}
	for i := range commits {
		c := &commits[i]
		var keys []string
		seen := map[string]struct{}{}
		for _, f := range c.files {
			key, ok := acc.Observe(f.Filename, c.Date)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		c.DeploymentTargets = keys
	}
}

func (e *Enricher) enrichOne(ctx context.Context, owner, repo string, c *Commit) {
	logger := common.Logger()
	detail, err := e.details.GetCommit(ctx, owner, repo, c.SHA)
	if err != nil {
		logger.Warn("history: commit detail fetch failed", "sha", c.SHA, "error", err)
		return
	}
	c.files = detail.Files

	if e.audit != nil {
		if summary, found, err := e.audit.Lookup(ctx, c.SHA); err != nil {
			logger.Warn("history: summary audit lookup failed", "sha", c.SHA, "error", err)
		} else if found {
			c.Summary = &summary
			return
		}
	}
	if e.summarizer == nil {
		return
	}
	c.Summary = e.summarizer.Summarize(ctx, c.Headline, c.files)
	if c.Summary != nil && e.audit != nil {
		if err := e.audit.Record(ctx, c.SHA, *c.Summary); err != nil {
			logger.Warn("history: summary audit write failed", "sha", c.SHA, "error", err)
		}
	}
}
