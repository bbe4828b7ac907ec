// File path: internal/history/types.go
package history

import (
	"path"
	"strings"
	"time"

	"github.com/openassess/asset-history/internal/github"
	"github.com/openassess/asset-history/internal/textutil"
)

const maxHeadline = 100

// Commit is the request-scoped display model for one revision. It is built
// from the hosting API's payload, enriched with a summary and the deployment
// targets it touched, and serialized straight into the response.
type Commit struct {
	SHA               string          `json:"sha"`
	Author            github.Identity `json:"author"`
	Committer         github.Identity `json:"committer"`
	Message           string          `json:"message"`
	Headline          string          `json:"headline"`
	Date              time.Time       `json:"date"`
	URL               string          `json:"url"`
	Summary           *string         `json:"summary"`
	DeploymentTargets []string        `json:"deployment_targets"`

	files []github.FileDiff
}

// Files returns the lazily fetched file diffs, nil before enrichment.
func (c *Commit) Files() []github.FileDiff {
	return c.files
}

func fromAPI(raw github.Commit) Commit {
	c := Commit{
		SHA:     raw.SHA,
		Message: raw.Commit.Message,
		Date:    raw.Date(),
		URL:     raw.HTMLURL,
		Author: github.Identity{
			Name:  raw.Commit.Author.Name,
			Email: raw.Commit.Author.Email,
		},
		Committer: github.Identity{
			Name:  raw.Commit.Committer.Name,
			Email: raw.Commit.Committer.Email,
		},
	}
	if raw.Author != nil {
		c.Author.Login = raw.Author.Login
	}
	if raw.Committer != nil {
		c.Committer.Login = raw.Committer.Login
	}
	c.Headline = headline(c.Message)
	relabelCrowdin(&c)
	return c
}

// headline shortens the first message line, replacing path-like tokens with
// their basename so long repository paths do not crowd the list view.
func headline(message string) string {
	first := message
	if idx := strings.IndexByte(first, '\n'); idx >= 0 {
		first = first[:idx]
	}
	tokens := strings.Fields(first)
	for i, tok := range tokens {
		trimmed := strings.TrimRight(tok, ":,")
		if strings.Contains(trimmed, "/") {
			suffix := tok[len(trimmed):]
			tokens[i] = path.Base(trimmed) + suffix
		}
	}
	return textutil.Truncate(strings.Join(tokens, " "), maxHeadline)
}

var crowdinMessageHints = []string{"crowdin", "new translations"}

// relabelCrowdin reclassifies automated translation-export commits so the
// dashboard shows "Crowdin" instead of the bot account that pushed them.
// Display-only: the commit is never filtered.
func relabelCrowdin(c *Commit) {
	lower := strings.ToLower(c.Message)
	matched := false
	for _, hint := range crowdinMessageHints {
		if strings.Contains(lower, hint) {
			matched = true
			break
		}
	}
	if !matched || !isAutomationIdentity(c.Author) {
		return
	}
	c.Author = github.Identity{Name: "Crowdin", Login: c.Author.Login}
	c.Committer = github.Identity{Name: "Crowdin", Login: c.Committer.Login}
}

func isAutomationIdentity(id github.Identity) bool {
	login := strings.ToLower(id.Login)
	if login == "crowdin-bot" || strings.HasSuffix(login, "[bot]") {
		return true
	}
	email := strings.ToLower(id.Email)
	return strings.HasSuffix(email, "@crowdin.com") || strings.Contains(email, "crowdin")
}
