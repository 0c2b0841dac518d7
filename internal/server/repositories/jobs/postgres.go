// Package jobs persists background tasks in PostgreSQL.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, job *models.Job) (int64, error) {
	query := `INSERT INTO jobs (kind, payload, state, attempt, max_attempts, run_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		job.Kind, job.Payload, string(models.JobPending), job.Attempt, job.MaxAttempts, job.RunAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// BuryExpired moves running tasks whose lease expired on their final attempt
// to dead and returns how many were moved.
func (r *PostgresRepository) BuryExpired(ctx context.Context, now time.Time, lastError string) (int64, error) {
	query := `UPDATE jobs SET state = 'dead', last_error = $2, locked_until = NULL, updated_at = now()
		WHERE state = 'running' AND locked_until < $1 AND attempt >= max_attempts`

	res, err := r.db.ExecContext(ctx, query, now, lastError)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// LockNext row-locks the oldest task that is due, either pending with run_at
// reached or running with an expired lease and attempts left. Rows locked by another
// transaction are skipped. It must run inside a transaction for the lock to
// be held until MarkRunning; ErrorNotFound means nothing is due.
func (r *PostgresRepository) LockNext(ctx context.Context, now time.Time) (*models.Job, error) {
	query := `SELECT id, kind, payload, state, attempt, max_attempts, run_at, locked_until, last_error
		FROM jobs
		WHERE (state = 'pending' AND run_at <= $1)
		   OR (state = 'running' AND locked_until < $1 AND attempt < max_attempts)
		ORDER BY run_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	var (
		job         models.Job
		state       string
		lockedUntil sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, now).Scan(
		&job.ID, &job.Kind, &job.Payload, &state, &job.Attempt, &job.MaxAttempts, &job.RunAt, &lockedUntil, &job.LastError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	job.State = models.JobState(state)
	if lockedUntil.Valid {
		job.LockedUntil = lockedUntil.Time
	}
	return &job, nil
}

// MarkRunning records a claim: the attempt counter is incremented and the
// lease runs until lockedUntil.
func (r *PostgresRepository) MarkRunning(ctx context.Context, id int64, lockedUntil time.Time) error {
	query := `UPDATE jobs SET state = 'running', attempt = attempt + 1, locked_until = $2, updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, id, lockedUntil)
}

// MarkDone, Reschedule and MarkDead only touch the row while it is still
// running under the given attempt; otherwise they return ErrorNotFound.
func (r *PostgresRepository) MarkDone(ctx context.Context, id int64, attempt int) error {
	query := `UPDATE jobs SET state = 'done', locked_until = NULL, updated_at = now()
		WHERE id = $1 AND attempt = $2 AND state = 'running'`
	return r.exec(ctx, query, id, attempt)
}

func (r *PostgresRepository) Reschedule(ctx context.Context, id int64, attempt int, runAt time.Time, lastError string) error {
	query := `UPDATE jobs SET state = 'pending', run_at = $3, last_error = $4, locked_until = NULL, updated_at = now()
		WHERE id = $1 AND attempt = $2 AND state = 'running'`
	return r.exec(ctx, query, id, attempt, runAt, lastError)
}

func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, attempt int, lastError string) error {
	query := `UPDATE jobs SET state = 'dead', last_error = $3, locked_until = NULL, updated_at = now()
		WHERE id = $1 AND attempt = $2 AND state = 'running'`
	return r.exec(ctx, query, id, attempt, lastError)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
