package jobs

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// PostgresStore keeps tasks in the jobs table. Any number of processes may
// consume from it concurrently.
type PostgresStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostgresStore(db *sql.DB, m repomanager.RepositoryManager) *PostgresStore {
	return &PostgresStore{db: db, repomanager: m}
}

func (s *PostgresStore) Insert(ctx context.Context, job *models.Job) error {
	id, err := s.repomanager.Jobs(s.db).Insert(ctx, job)
	if err != nil {
		return err
	}
	job.ID = id
	job.State = models.JobPending
	return nil
}

// Claim buries tasks whose last attempt outlived its lease, then locks the
// next due row with SKIP LOCKED and marks it running, all in one
// transaction.
func (s *PostgresStore) Claim(ctx context.Context, now time.Time, lease time.Duration) (*models.Job, error) {
	var job *models.Job
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Jobs(tx)

		if _, err := repo.BuryExpired(ctx, now, leaseExpiredError); err != nil {
			return err
		}

		next, err := repo.LockNext(ctx, now)
		if errors.Is(err, common.ErrorNotFound) {
			// commit so the burials above stick
			return nil
		}
		if err != nil {
			return err
		}

		lockedUntil := now.Add(lease)
		if err := repo.MarkRunning(ctx, next.ID, lockedUntil); err != nil {
			return err
		}

		next.State = models.JobRunning
		next.Attempt++
		next.LockedUntil = lockedUntil
		job = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNoJob
	}
	return job, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id int64, attempt int) error {
	return leaseLost(s.repomanager.Jobs(s.db).MarkDone(ctx, id, attempt))
}

func (s *PostgresStore) Retry(ctx context.Context, id int64, attempt int, runAt time.Time, lastError string) error {
	return leaseLost(s.repomanager.Jobs(s.db).Reschedule(ctx, id, attempt, runAt, lastError))
}

func (s *PostgresStore) Bury(ctx context.Context, id int64, attempt int, lastError string) error {
	return leaseLost(s.repomanager.Jobs(s.db).MarkDead(ctx, id, attempt, lastError))
}

func leaseLost(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrLeaseLost
	}
	return err
}
