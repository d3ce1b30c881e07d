// Package history persists finished searches in SQLite so past patterns and
// their outcomes can be recalled.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/CloudShih/ripsearch/internal/models"
)

// Entry is one recorded search.
type Entry struct {
	ID               string              `json:"id"`
	Pattern          string              `json:"pattern"`
	SearchPath       string              `json:"search_path"`
	Status           models.SearchStatus `json:"status"`
	TotalMatches     int                 `json:"total_matches"`
	FilesWithMatches int                 `json:"files_with_matches"`
	FilesSearched    int                 `json:"files_searched"`
	SearchTime       float64             `json:"search_time"`
	StartedAt        time.Time           `json:"started_at"`
}

// Store is the SQLite-backed search history.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		pattern TEXT NOT NULL,
		search_path TEXT NOT NULL,
		status TEXT NOT NULL,
		total_matches INTEGER NOT NULL,
		files_with_matches INTEGER NOT NULL,
		files_searched INTEGER NOT NULL,
		search_time REAL NOT NULL,
		started_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_searches_started_at ON searches(started_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record inserts e. A missing ID gets a generated one; a zero StartedAt is
// set to now.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (id, pattern, search_path, status, total_matches,
		 files_with_matches, files_searched, search_time, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Pattern, e.SearchPath, string(e.Status), e.TotalMatches,
		e.FilesWithMatches, e.FilesSearched, e.SearchTime, e.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// RecordSummary is a convenience wrapper building an Entry from a summary.
func (s *Store) RecordSummary(ctx context.Context, id, searchPath string, summary *models.SearchSummary) error {
	return s.Record(ctx, &Entry{
		ID:               id,
		Pattern:          summary.Pattern,
		SearchPath:       searchPath,
		Status:           summary.Status,
		TotalMatches:     summary.TotalMatches,
		FilesWithMatches: summary.FilesWithMatches,
		FilesSearched:    summary.FilesSearched,
		SearchTime:       summary.SearchTime,
	})
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern, search_path, status, total_matches,
		 files_with_matches, files_searched, search_time, started_at
		 FROM searches ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.ID, &e.Pattern, &e.SearchPath, &status, &e.TotalMatches,
			&e.FilesWithMatches, &e.FilesSearched, &e.SearchTime, &e.StartedAt); err != nil {
			return nil, err
		}
		e.Status = models.SearchStatus(status)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Clear deletes all history.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM searches`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
