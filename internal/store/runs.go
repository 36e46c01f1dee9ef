// Package store persists pipeline run history to SQLite for external
// inspection. The store is optional; the pipeline runs fine without it.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"graft/internal/logging"
)

// RunRecord is one completed pipeline run.
type RunRecord struct {
	ID         string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time

	Modules       int
	ParseFailures int
	Endpoints     int
	Models        int
	DebtItems     int
	TestFiles     int

	InstallOutcome string
	InstallExit    int
	TestsOutcome   string
	TestsExit      int
	BuildOutcome   string
	BuildExit      int
}

// RunStore is a SQLite-backed history of pipeline runs.
type RunStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open initializes the database at path, creating the schema if needed.
func Open(path string) (*RunStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store open")
	defer timer.Stop()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set journal_mode=WAL: %v", err)
	}

	s := &RunStore{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("run store ready at %s", path)
	return s, nil
}

func (s *RunStore) initialize() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	root            TEXT NOT NULL,
	started_at      INTEGER NOT NULL,
	finished_at     INTEGER NOT NULL,
	modules         INTEGER NOT NULL,
	parse_failures  INTEGER NOT NULL,
	endpoints       INTEGER NOT NULL,
	models          INTEGER NOT NULL,
	debt_items      INTEGER NOT NULL,
	test_files      INTEGER NOT NULL,
	install_outcome TEXT NOT NULL,
	install_exit    INTEGER NOT NULL,
	tests_outcome   TEXT NOT NULL,
	tests_exit      INTEGER NOT NULL,
	build_outcome   TEXT NOT NULL,
	build_exit      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// RecordRun inserts one completed run.
func (s *RunStore) RecordRun(rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO runs (
	id, root, started_at, finished_at,
	modules, parse_failures, endpoints, models, debt_items, test_files,
	install_outcome, install_exit, tests_outcome, tests_exit, build_outcome, build_exit
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Root, rec.StartedAt.Unix(), rec.FinishedAt.Unix(),
		rec.Modules, rec.ParseFailures, rec.Endpoints, rec.Models, rec.DebtItems, rec.TestFiles,
		rec.InstallOutcome, rec.InstallExit, rec.TestsOutcome, rec.TestsExit, rec.BuildOutcome, rec.BuildExit,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", rec.ID, err)
	}
	logging.StoreDebug("recorded run %s", rec.ID)
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
SELECT id, root, started_at, finished_at,
	modules, parse_failures, endpoints, models, debt_items, test_files,
	install_outcome, install_exit, tests_outcome, tests_exit, build_outcome, build_exit
FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished int64
		if err := rows.Scan(
			&rec.ID, &rec.Root, &started, &finished,
			&rec.Modules, &rec.ParseFailures, &rec.Endpoints, &rec.Models, &rec.DebtItems, &rec.TestFiles,
			&rec.InstallOutcome, &rec.InstallExit, &rec.TestsOutcome, &rec.TestsExit, &rec.BuildOutcome, &rec.BuildExit,
		); err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.FinishedAt = time.Unix(finished, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *RunStore) Close() error {
	return s.db.Close()
}
