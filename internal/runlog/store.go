package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    sequence TEXT NOT NULL,
    qp TEXT NOT NULL,
    handle TEXT,
    status TEXT NOT NULL,
    exit_code INTEGER,
    error_message TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_run_id ON jobs(run_id);
`

// Open initializes or connects to the ledger database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordSubmitted inserts a new ledger row for a submitted job.
func (s *Store) RecordSubmitted(ctx context.Context, runID, sequence, qp, handle string) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (run_id, sequence, qp, handle, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		sequence,
		qp,
		nullableString(handle),
		StatusSubmitted,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// MarkFinished records a job's terminal state.
func (s *Store) MarkFinished(ctx context.Context, id int64, exitCode int, errMsg string) error {
	status := StatusCompleted
	if exitCode != 0 || errMsg != "" {
		status = StatusFailed
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, exit_code = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		exitCode,
		nullableString(errMsg),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}
	return nil
}

// GetByID fetches a ledger row by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// JobsForRun returns every job of a run in submission order.
func (s *Store) JobsForRun(ctx context.Context, runID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// StatsForRun returns a run's job counts grouped by status.
func (s *Store) StatsForRun(ctx context.Context, runID string) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return Stats{}, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch status {
		case StatusSubmitted:
			stats.Submitted += count
		case StatusCompleted:
			stats.Completed += count
		case StatusFailed:
			stats.Failed += count
		}
	}
	return stats, rows.Err()
}

// LatestRunID returns the most recently created run, or empty when the
// ledger has no rows.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id FROM jobs ORDER BY id DESC LIMIT 1`)
	var runID string
	if err := row.Scan(&runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("latest run: %w", err)
	}
	return runID, nil
}

const jobColumns = "id, run_id, sequence, qp, handle, status, exit_code, error_message, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id         int64
		runID      string
		sequence   string
		qp         string
		handle     sql.NullString
		statusStr  string
		exitCode   sql.NullInt64
		errMsg     sql.NullString
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&sequence,
		&qp,
		&handle,
		&statusStr,
		&exitCode,
		&errMsg,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:       id,
		RunID:    runID,
		Sequence: sequence,
		QP:       qp,
		Handle:   handle.String,
		Status:   Status(statusStr),
		ExitCode: -1,
		Error:    errMsg.String,
	}
	if exitCode.Valid {
		job.ExitCode = int(exitCode.Int64)
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
