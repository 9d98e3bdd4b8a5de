// Package history persists run outcomes in a local SQLite database so
// past runs can be inspected after the process exits.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cogrun/cogrun/internal/task"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	timestamp   INTEGER NOT NULL,
	cogfile     TEXT NOT NULL,
	workers     INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	completed   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS task_results (
	run_id      TEXT NOT NULL REFERENCES runs(run_id),
	task_id     TEXT NOT NULL,
	state       TEXT NOT NULL,
	handler     TEXT,
	error       TEXT,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, task_id)
);
CREATE INDEX IF NOT EXISTS idx_task_results_task ON task_results(task_id);
`

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID     string
	Timestamp time.Time
	Cogfile   string
	Workers   int
	Total     int
	Completed int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// TaskRecord is one historical outcome of a task.
type TaskRecord struct {
	RunID    string
	TaskID   string
	State    string
	Handler  string
	Error    string
	Duration time.Duration
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default history database path.
func DefaultPath() string {
	return filepath.Join(".cogrun", "history.db")
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run report and all of its task results in one
// transaction.
func (s *Store) RecordRun(report *task.RunReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, timestamp, cogfile, workers, total, completed, failed, skipped, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Timestamp.Unix(),
		report.Cogfile,
		report.Workers,
		report.TotalTasks,
		report.Completed,
		report.Failed,
		report.Skipped,
		report.TotalDuration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for id, r := range report.Results {
		_, err = tx.Exec(
			`INSERT INTO task_results (run_id, task_id, state, handler, error, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			report.RunID, id, r.State.String(), r.Handler, r.Error, r.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert task result %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT run_id, timestamp, cogfile, workers, total, completed, failed, skipped, duration_ms
		 FROM runs ORDER BY timestamp DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var ts, durMS int64
		if err := rows.Scan(&r.RunID, &ts, &r.Cogfile, &r.Workers, &r.Total, &r.Completed, &r.Failed, &r.Skipped, &durMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0)
		r.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// TaskHistory returns past outcomes of a single task, newest first.
func (s *Store) TaskHistory(taskID string, limit int) ([]TaskRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT tr.run_id, tr.task_id, tr.state, tr.handler, tr.error, tr.duration_ms
		 FROM task_results tr JOIN runs r ON r.run_id = tr.run_id
		 WHERE tr.task_id = ?
		 ORDER BY r.timestamp DESC, tr.run_id LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("query task history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var durMS int64
		if err := rows.Scan(&rec.RunID, &rec.TaskID, &rec.State, &rec.Handler, &rec.Error, &durMS); err != nil {
			return nil, fmt.Errorf("scan task record: %w", err)
		}
		rec.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
