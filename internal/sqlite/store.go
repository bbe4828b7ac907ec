// File path: internal/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS commit_summaries (
    sha        TEXT PRIMARY KEY,
    summary    TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Store persists derived commit summaries. A sha's summary never changes
// once written, so the table doubles as a cross-restart cache in front of
// the synthesizer.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at path, creating
// the schema on first use.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the stored summary for sha, reporting whether one exists.
func (s *Store) Lookup(ctx context.Context, sha string) (string, bool, error) {
	var summary string
	err := s.db.GetContext(ctx, &summary, `SELECT summary FROM commit_summaries WHERE sha = ?`, sha)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup summary: %w", err)
	}
	return summary, true, nil
}

// Record stores a summary for sha. Replays keep the first write.
func (s *Store) Record(ctx context.Context, sha, summary string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commit_summaries (sha, summary) VALUES (?, ?) ON CONFLICT (sha) DO NOTHING`,
		sha, summary)
	if err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	return nil
}
