// File path: internal/history/fetcher.go
package history

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/github"
)

// CommitLister is the slice of the hosting client the fetcher consumes.
type CommitLister interface {
	ListCommits(ctx context.Context, owner, repo string, opts github.ListCommitsOptions) ([]github.Commit, error)
}

// FetchOptions scopes one history collection.
type FetchOptions struct {
	Owner  string
	Repo   string
	Branch string
	Paths  []string
	Since  time.Time
	Until  time.Time
	Limit  int
}

// FetchResult is the merged commit window plus the rate-limit flag the
// response surfaces.
type FetchResult struct {
	Commits     []Commit
	RateLimited bool
}

// Fetcher collects, merges and orders commit history across tracked paths.
type Fetcher struct {
	lister CommitLister
}

// NewFetcher wraps a commit lister.
func NewFetcher(lister CommitLister) *Fetcher {
	return &Fetcher{lister: lister}
}

// Collect queries each tracked path, merges the results by sha keeping the
// first occurrence, sorts newest first, and truncates to the limit only after
// merging so no path starves another.
//
// A rate-limited path aborts the whole multi-path collection: remaining paths
// are not attempted, nothing partial is aggregated, and the error is
// re-raised with the flag set. Other per-path failures are logged and that
// path's results are omitted. With no paths a single unscoped query runs;
// its rate limit is surfaced as the flag alone, any other failure is fatal.
func (f *Fetcher) Collect(ctx context.Context, opts FetchOptions) (FetchResult, error) {
	logger := common.Logger()
	listOpts := github.ListCommitsOptions{
		Branch: opts.Branch,
		Since:  opts.Since,
		Until:  opts.Until,
	}

	var (
		merged []Commit
		seen   = map[string]struct{}{}
		result FetchResult
	)
	add := func(raw []github.Commit) {
		for _, rc := range raw {
			if _, dup := seen[rc.SHA]; dup {
				continue
			}
			seen[rc.SHA] = struct{}{}
			merged = append(merged, fromAPI(rc))
		}
	}

	if len(opts.Paths) == 0 {
		raw, err := f.lister.ListCommits(ctx, opts.Owner, opts.Repo, listOpts)
		if err != nil {
			if errors.Is(err, github.ErrRateLimited) {
				result.RateLimited = true
				return result, nil
			}
			return result, err
		}
		add(raw)
	} else {
		for _, p := range opts.Paths {
			scoped := listOpts
			scoped.Path = p
			raw, err := f.lister.ListCommits(ctx, opts.Owner, opts.Repo, scoped)
			if err != nil {
				if errors.Is(err, github.ErrRateLimited) {
					logger.Warn("history: rate limited, aborting path collection", "path", p)
					return FetchResult{RateLimited: true}, err
				}
				logger.Warn("history: path query failed, omitting", "path", p, "error", err)
				continue
			}
			add(raw)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	if opts.Limit > 0 && len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	result.Commits = merged
	return result, nil
}
