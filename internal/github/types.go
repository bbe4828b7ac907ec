// File path: internal/github/types.go
package github

import "time"

// Identity is the name/email pair recorded on a commit, plus the hosting
// account login when the upstream could resolve one.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Login string `json:"login,omitempty"`
}

// Commit mirrors one entry of the upstream commit-list payload, flattened to
// the fields the pipeline consumes.
type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
		Committer struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
	Committer *struct {
		Login string `json:"login"`
	} `json:"committer"`
}

// Date returns the commit (committer) timestamp, falling back to the author
// timestamp for imports that carry only one.
func (c Commit) Date() time.Time {
	if !c.Commit.Committer.Date.IsZero() {
		return c.Commit.Committer.Date
	}
	return c.Commit.Author.Date
}

// FileDiff is one changed file within a commit. Patch is empty for binary or
// oversized files; the extractors treat that as nothing to summarize.
type FileDiff struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// CommitDetail is the full diff payload for a single commit.
type CommitDetail struct {
	SHA   string     `json:"sha"`
	Files []FileDiff `json:"files"`
}
