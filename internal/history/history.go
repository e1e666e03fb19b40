package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps a queryable record of past report runs in a local sqlite file.
type Store struct {
	db *sql.DB
}

// Run is one recorded report run.
type Run struct {
	ID         int64     `json:"id"`
	Project    string    `json:"project"`
	ReportKind string    `json:"report_kind"`
	RowCount   int       `json:"row_count"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    project     TEXT NOT NULL,
    report_kind TEXT NOT NULL,
    row_count   INTEGER NOT NULL,
    skipped     INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project, created_at);
`

// Open creates or opens the run-history database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ghas_report.db")
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// RecordRun implements report.RunRecorder.
func (s *Store) RecordRun(ctx context.Context, project, kind string, rows, skipped int, duration time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (project, report_kind, row_count, skipped, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		project, kind, rows, skipped, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, report_kind, row_count, skipped, duration_ms, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Project, &r.ReportKind, &r.RowCount, &r.Skipped, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
