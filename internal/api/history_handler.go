// File path: internal/api/history_handler.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/deploy"
	"github.com/openassess/asset-history/internal/github"
	"github.com/openassess/asset-history/internal/history"
)

const defaultLimit = 50

// handleAssetHistory runs the full pipeline for one request: collect, enrich,
// correlate, assemble. The collection-and-enrichment phase runs under a
// single wall-clock timeout; when it trips, the request fails and partial
// results are discarded.
func (s *Server) handleAssetHistory(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	q := r.URL.Query()

	owner := queryDefault(r, "owner", s.cfg.GitHub.Owner)
	repo := queryDefault(r, "repo", s.cfg.GitHub.Repo)
	branch := queryDefault(r, "branch", s.cfg.GitHub.DefaultBranch)
	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	start, err := parseTimeParam(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
		return
	}
	end, err := parseTimeParam(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid end: %w", err))
		return
	}
	paths := parsePaths(q["path"], s.cfg.GitHub.TrackedPaths)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CollectTimeout)
	defer cancel()

	result, err := s.fetcher.Collect(ctx, history.FetchOptions{
		Owner:  owner,
		Repo:   repo,
		Branch: branch,
		Paths:  paths,
		Since:  start,
		Until:  end,
		Limit:  limit,
	})
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if ctx.Err() != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("commit collection timed out"))
		return
	}

	acc := deploy.NewAccumulator(s.cfg.Buckets, s.cfg.GitHub.TranslationCSV)
	s.enricher.Enrich(ctx, owner, repo, result.Commits, acc)
	if ctx.Err() != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("commit collection timed out"))
		return
	}

	targets := acc.Targets()
	s.correlator.Resolve(r.Context(), targets)

	logger.Info("api: asset history served",
		"repo", owner+"/"+repo,
		"branch", branch,
		"commits", len(result.Commits),
		"targets", len(targets),
		"rate_limited", result.RateLimited,
	)

	writeJSON(w, http.StatusOK, historyResponse{
		Repository:   owner + "/" + repo,
		Branch:       branch,
		Paths:        paths,
		Range:        timeRange{Start: timePtr(start), End: timePtr(end)},
		Commits:      commitList(result.Commits),
		FileStatuses: targets,
		Meta: responseMeta{
			Total:        len(result.Commits),
			Limit:        limit,
			RateLimited:  result.RateLimited,
			FetchedAt:    time.Now().UTC(),
			TokenPresent: s.hosting.TokenPresent(),
		},
	})
}

// writeUpstreamError mirrors a hosting-API status outward when one is
// carried; anything else is a plain 500.
func writeUpstreamError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	details := err.Error()
	body := ""
	var apiErr *github.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 100 && apiErr.StatusCode <= 599 {
			status = apiErr.StatusCode
		}
		body = apiErr.Body
	case errors.Is(err, github.ErrRateLimited):
		status = http.StatusForbidden
	}
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("api: upstream failure", "status", status, "error", err)
	} else {
		logger.Warn("api: upstream failure", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{
		"error":   "upstream request failed",
		"details": details,
		"body":    body,
	})
}

func queryDefault(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return v
	}
	return def
}

// parsePaths accepts repeated path params, each possibly comma-separated,
// falling back to the configured tracked paths.
func parsePaths(params []string, def []string) []string {
	var out []string
	for _, p := range params {
		for _, part := range strings.Split(p, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func parseTimeParam(v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func commitList(commits []history.Commit) []history.Commit {
	if commits == nil {
		return []history.Commit{}
	}
	return commits
}
