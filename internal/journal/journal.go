// Package journal keeps a persistent record of install attempts: one row per
// run, one row per pipeline step. The history survives the live session, so
// a failed unattended install can be diagnosed from the next boot.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default journal location
const DefaultPath = "/var/lib/installkit/journal.db"

// DB wraps the SQLite journal connection
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the journal database at the given path
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure journal: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run journal migrations: %w", err)
	}

	return db, nil
}

// Close closes the journal connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the journal file path
func (d *DB) Path() string {
	return d.path
}

func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var version int
	if err := d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return err
	}

	if version < 1 {
		_, err := d.conn.Exec(`
			CREATE TABLE IF NOT EXISTS runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				target_path TEXT NOT NULL,
				fs_type TEXT NOT NULL,
				variant TEXT NOT NULL,
				mirror TEXT NOT NULL,
				hostname TEXT NOT NULL,
				outcome TEXT NOT NULL DEFAULT 'running',
				error TEXT,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP
			);
			CREATE TABLE IF NOT EXISTS run_steps (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id INTEGER NOT NULL REFERENCES runs(id),
				state TEXT NOT NULL,
				message TEXT NOT NULL,
				percent INTEGER NOT NULL,
				recorded_at TIMESTAMP NOT NULL
			);
			INSERT INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return err
		}
	}

	return nil
}

// Run is one recorded install attempt
type Run struct {
	ID         int64
	TargetPath string
	FSType     string
	Variant    string
	Mirror     string
	Hostname   string
	Outcome    string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Step is one recorded pipeline transition
type Step struct {
	ID         int64
	RunID      int64
	State      string
	Message    string
	Percent    int
	RecordedAt time.Time
}

// BeginRun records the start of an install attempt and returns its id
func (d *DB) BeginRun(targetPath, fsType, variant, mirror, hostname string) (int64, error) {
	result, err := d.conn.Exec(`
		INSERT INTO runs (target_path, fs_type, variant, mirror, hostname, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, targetPath, fsType, variant, mirror, hostname, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return result.LastInsertId()
}

// RecordStep logs one pipeline state transition for a run
func (d *DB) RecordStep(runID int64, state, message string, percent int) error {
	_, err := d.conn.Exec(`
		INSERT INTO run_steps (run_id, state, message, percent, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, state, message, percent, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// FinishRun records a run's final outcome: "success", "failed" or "cancelled"
func (d *DB) FinishRun(runID int64, outcome, errText string) error {
	_, err := d.conn.Exec(`
		UPDATE runs SET outcome = ?, error = ?, finished_at = ? WHERE id = ?
	`, outcome, nullString(errText), time.Now(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent install attempts, newest first
func (d *DB) RecentRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.conn.Query(`
		SELECT id, target_path, fs_type, variant, mirror, hostname, outcome,
			COALESCE(error, ''), started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.TargetPath, &run.FSType, &run.Variant,
			&run.Mirror, &run.Hostname, &run.Outcome, &run.Error,
			&run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// RunSteps returns the recorded transitions of one run, oldest first
func (d *DB) RunSteps(runID int64) ([]*Step, error) {
	rows, err := d.conn.Query(`
		SELECT id, run_id, state, message, percent, recorded_at
		FROM run_steps
		WHERE run_id = ?
		ORDER BY recorded_at ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run steps: %w", err)
	}
	defer rows.Close()

	var steps []*Step
	for rows.Next() {
		var step Step
		if err := rows.Scan(&step.ID, &step.RunID, &step.State, &step.Message,
			&step.Percent, &step.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
