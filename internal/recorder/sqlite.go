package recorder

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL UNIQUE,
			job       TEXT NOT NULL,
			started   INTEGER NOT NULL,
			finished  INTEGER NOT NULL,
			countries TEXT,
			series    TEXT,
			files     INTEGER,
			errors    INTEGER,
			status    TEXT,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_job_started ON report_runs(job, started)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.NamedExecContext(ctx, `INSERT INTO report_runs
		(run_id, job, started, finished, countries, series, files, errors, status, message)
		VALUES (:run_id, :job, :started, :finished, :countries, :series, :files, :errors, :status, :message)`,
		run)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		run.ID = id
	}
	return nil
}

func (r *SQLiteRecorder) RecentRuns(ctx context.Context, job string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []Run
	err := r.db.SelectContext(ctx, &runs, `SELECT id, run_id, job, started, finished, countries, series,
			files, errors, status, message
		FROM report_runs
		WHERE ? = '' OR job = ?
		ORDER BY started DESC, id DESC
		LIMIT ?`, job, job, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return runs, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
