package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weathertrack/internal/runlog"
)

// Repository handles run and log persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a Pending run and returns its id. The run row is
// committed before any dependent log row can reference it.
func (r *Repository) CreateRun(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("runlog repo: nil db")
	}
	var runID int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO runs (status, started_at)
VALUES ($1, $2)
RETURNING run_id`, runlog.StatusPending, time.Now().UTC()).Scan(&runID)
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// FinishRun moves a run to a terminal status. Only rows still Pending are
// touched, so a run is finalized at most once.
func (r *Repository) FinishRun(ctx context.Context, runID int64, status, errMsg string) error {
	if r == nil || r.db == nil {
		return errors.New("runlog repo: nil db")
	}
	if status != runlog.StatusSuccess && status != runlog.StatusFailed {
		return errors.New("runlog repo: status must be terminal")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE runs
SET status = $1, error_message = $2, finished_at = $3
WHERE run_id = $4 AND status = $5`,
		status, errMsg, time.Now().UTC(), runID, runlog.StatusPending)
	return err
}

// GetRun returns a run by id, or nil when absent.
func (r *Repository) GetRun(ctx context.Context, runID int64) (*runlog.Run, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("runlog repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT run_id, status, error_message, started_at, finished_at
FROM runs
WHERE run_id = $1`, runID)

	var run runlog.Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Status, &run.ErrorMessage, &run.StartedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	run.StartedAt = run.StartedAt.UTC()
	if finished.Valid {
		t := finished.Time.UTC()
		run.FinishedAt = &t
	}
	return &run, nil
}

// LatestRunID returns the most recently created run id, or 0 when no run
// exists yet.
func (r *Repository) LatestRunID(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("runlog repo: nil db")
	}
	var runID int64
	err := r.db.QueryRowContext(ctx, `
SELECT run_id FROM runs ORDER BY run_id DESC LIMIT 1`).Scan(&runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return runID, nil
}

// LogAPICall appends an api call log entry.
func (r *Repository) LogAPICall(ctx context.Context, call runlog.APICall) error {
	if r == nil || r.db == nil {
		return errors.New("runlog repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO api_call_logs (run_id, request_method, request_url, response_status, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		call.RunID, call.Method, call.URL, call.Status, call.ErrorMessage, time.Now().UTC())
	return err
}

// LogMutation appends a db transaction log entry.
func (r *Repository) LogMutation(ctx context.Context, m runlog.Mutation) error {
	if r == nil || r.db == nil {
		return errors.New("runlog repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO db_transaction_logs (run_id, entity_kind, entity_id, operation, status, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.RunID, m.EntityKind, m.EntityID, m.Operation, m.Status, m.ErrorMessage, time.Now().UTC())
	return err
}
