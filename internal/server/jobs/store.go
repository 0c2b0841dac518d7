// Package jobs is an at-least-once task queue with bounded retries and
// exponential backoff. Tasks are kept in a Store (Postgres or memory) and
// consumed by a Runner.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

var (
	// ErrNoJob is returned by Store.Claim when nothing is due.
	ErrNoJob = errors.New("no job due")

	// ErrLeaseLost is returned when a consumer reports on a claim that is no
	// longer current: the lease expired and the task was claimed again,
	// buried or completed elsewhere.
	ErrLeaseLost = errors.New("task lease lost")
)

// leaseExpiredError is recorded on tasks whose final attempt never
// reported back.
const leaseExpiredError = "lease expired"

// Store persists tasks and hands them out to consumers.
//
// Claim atomically moves one due task to running, increments its attempt
// counter and leases it until now+lease. A running task whose lease has
// expired is due again, which is how a crashed consumer's work is recovered,
// unless that claim was its last attempt: such a task is buried instead.
//
// Complete, Retry and Bury apply only to the claim identified by id and
// attempt; anything else yields ErrLeaseLost.
type Store interface {
	Insert(ctx context.Context, job *models.Job) error
	Claim(ctx context.Context, now time.Time, lease time.Duration) (*models.Job, error)
	Complete(ctx context.Context, id int64, attempt int) error
	Retry(ctx context.Context, id int64, attempt int, runAt time.Time, lastError string) error
	Bury(ctx context.Context, id int64, attempt int, lastError string) error
}

// waker is implemented by stores that can signal new work.
type waker interface {
	Wake() <-chan struct{}
}

// Backoff returns the delay before retrying after the given failed attempt:
// unit, 2*unit, 4*unit...
func Backoff(unit time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return unit << (attempt - 1)
}
