package jobs

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, job *models.Job) (int64, error)
	BuryExpired(ctx context.Context, now time.Time, lastError string) (int64, error)
	LockNext(ctx context.Context, now time.Time) (*models.Job, error)
	MarkRunning(ctx context.Context, id int64, lockedUntil time.Time) error
	MarkDone(ctx context.Context, id int64, attempt int) error
	Reschedule(ctx context.Context, id int64, attempt int, runAt time.Time, lastError string) error
	MarkDead(ctx context.Context, id int64, attempt int, lastError string) error
}
