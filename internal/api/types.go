// File path: internal/api/types.go
package api

import (
	"time"

	"github.com/openassess/asset-history/internal/deploy"
	"github.com/openassess/asset-history/internal/history"
)

type timeRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

type responseMeta struct {
	Total        int       `json:"total"`
	Limit        int       `json:"limit"`
	RateLimited  bool      `json:"rateLimited"`
	FetchedAt    time.Time `json:"fetchedAt"`
	TokenPresent bool      `json:"tokenPresent"`
}

type historyResponse struct {
	Repository   string           `json:"repository"`
	Branch       string           `json:"branch"`
	Paths        []string         `json:"paths"`
	Range        timeRange        `json:"range"`
	Commits      []history.Commit `json:"commits"`
	FileStatuses []*deploy.Target `json:"file_statuses"`
	Meta         responseMeta     `json:"meta"`
}
