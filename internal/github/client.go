// File path: internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openassess/asset-history/internal/cache"
	"github.com/openassess/asset-history/internal/common"
)

// ErrRateLimited reports that the hosting API refused the request because the
// quota is exhausted. Multi-path collection aborts on it instead of burning
// the remaining budget on requests that will also fail.
var ErrRateLimited = errors.New("github: rate limited")

// APIError carries the upstream HTTP status and response body for non-2xx
// replies so the handler can mirror the status outward.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: upstream status %d", e.StatusCode)
}

// Client is a thin REST client for the commit, diff, raw-content and branch
// endpoints the history pipeline consumes.
type Client struct {
	baseURL  string
	rawURL   string
	token    string
	http     *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client; tests point it at an
// httptest server.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRawBaseURL overrides the raw-content host.
func WithRawBaseURL(u string) Option {
	return func(c *Client) { c.rawURL = strings.TrimRight(u, "/") }
}

// WithCache attaches a TTL cache for raw-content range reads.
func WithCache(ca cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ca
		c.cacheTTL = ttl
	}
}

// NewClient constructs a Client for the given API base URL. An empty token is
// allowed; unauthenticated requests just run under the anonymous quota.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		rawURL:   "https://raw.githubusercontent.com",
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		cacheTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenPresent reports whether the client authenticates its requests.
func (c *Client) TokenPresent() bool {
	return c.token != ""
}

// ListCommitsOptions narrows a commit-history query.
type ListCommitsOptions struct {
	Branch  string
	Path    string
	Since   time.Time
	Until   time.Time
	PerPage int
}

// ListCommits queries the commit history of owner/repo, newest first as the
// upstream returns it.
func (c *Client) ListCommits(ctx context.Context, owner, repo string, opts ListCommitsOptions) ([]Commit, error) {
	q := url.Values{}
	if opts.Branch != "" {
		q.Set("sha", opts.Branch)
	}
	if opts.Path != "" {
		q.Set("path", opts.Path)
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		q.Set("until", opts.Until.UTC().Format(time.RFC3339))
	}
	perPage := opts.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	q.Set("per_page", strconv.Itoa(perPage))

	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?%s", c.baseURL, owner, repo, q.Encode())
	var commits []Commit
	if err := c.getJSON(ctx, endpoint, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// GetCommit fetches one commit's file-level diff payload.
func (c *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*CommitDetail, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, repo, url.PathEscape(sha))
	var detail CommitDetail
	if err := c.getJSON(ctx, endpoint, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListBranches returns the repository's branch names.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/branches?per_page=100", c.baseURL, owner, repo)
	var branches []struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, endpoint, &branches); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names, nil
}

// FetchRawHead reads up to maxBytes of a file at the given ref via a ranged
// request. Results are cached by URL; the CSV header row this feeds changes
// rarely relative to request volume.
func (c *Client) FetchRawHead(ctx context.Context, owner, repo, ref, path string, maxBytes int) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawURL, owner, repo, url.PathEscape(ref), path)
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, endpoint); ok {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)
	if maxBytes > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", maxBytes-1))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	limit := int64(maxBytes)
	if limit <= 0 {
		limit = 64 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", err
	}
	text := string(body)
	if c.cache != nil {
		if err := c.cache.Set(ctx, endpoint, text, c.cacheTTL); err != nil {
			common.Logger().Warn("github: raw-head cache write failed", "url", endpoint, "error", err)
		}
	}
	return text, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
