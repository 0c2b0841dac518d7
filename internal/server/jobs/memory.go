package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// MemoryStore keeps tasks in process memory. Completed tasks are dropped;
// dead tasks are kept for inspection.
type MemoryStore struct {
	mu     sync.Mutex
	jobs   map[int64]*models.Job
	nextID int64
	done   int
	wake   chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[int64]*models.Job),
		wake: make(chan struct{}, 1),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	s.nextID++
	job.ID = s.nextID
	job.State = models.JobPending
	stored := *job
	s.jobs[stored.ID] = &stored
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *MemoryStore) Claim(ctx context.Context, now time.Time, lease time.Duration) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *models.Job
	for _, j := range s.jobs {
		if leaseExhausted(j, now) {
			j.State = models.JobDead
			j.LastError = leaseExpiredError
			j.LockedUntil = time.Time{}
			continue
		}
		if !due(j, now) {
			continue
		}
		if next == nil || j.RunAt.Before(next.RunAt) || (j.RunAt.Equal(next.RunAt) && j.ID < next.ID) {
			next = j
		}
	}
	if next == nil {
		return nil, ErrNoJob
	}

	next.State = models.JobRunning
	next.Attempt++
	next.LockedUntil = now.Add(lease)
	claimed := *next
	return &claimed, nil
}

// leaseExhausted reports a running task whose lease expired on its final
// attempt.
func leaseExhausted(j *models.Job, now time.Time) bool {
	return j.State == models.JobRunning && j.LockedUntil.Before(now) && j.Attempt >= j.MaxAttempts
}

func due(j *models.Job, now time.Time) bool {
	switch j.State {
	case models.JobPending:
		return !j.RunAt.After(now)
	case models.JobRunning:
		return j.LockedUntil.Before(now)
	}
	return false
}

func (s *MemoryStore) Complete(ctx context.Context, id int64, attempt int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.claimed(id, attempt); err != nil {
		return err
	}
	delete(s.jobs, id)
	s.done++
	return nil
}

func (s *MemoryStore) Retry(ctx context.Context, id int64, attempt int, runAt time.Time, lastError string) error {
	return s.update(id, attempt, func(j *models.Job) {
		j.State = models.JobPending
		j.RunAt = runAt
		j.LastError = lastError
		j.LockedUntil = time.Time{}
	})
}

func (s *MemoryStore) Bury(ctx context.Context, id int64, attempt int, lastError string) error {
	return s.update(id, attempt, func(j *models.Job) {
		j.State = models.JobDead
		j.LastError = lastError
		j.LockedUntil = time.Time{}
	})
}

func (s *MemoryStore) update(id int64, attempt int, fn func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.claimed(id, attempt)
	if err != nil {
		return err
	}
	fn(j)
	return nil
}

// claimed returns the task if it is still running under the given attempt.
// The caller holds s.mu.
func (s *MemoryStore) claimed(id int64, attempt int) (*models.Job, error) {
	j, ok := s.jobs[id]
	if !ok || j.State != models.JobRunning || j.Attempt != attempt {
		return nil, ErrLeaseLost
	}
	return j, nil
}

// Wake delivers a signal after each Insert.
func (s *MemoryStore) Wake() <-chan struct{} {
	return s.wake
}

// Get returns a copy of a pending, running or dead task.
func (s *MemoryStore) Get(id int64) (models.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *j, true
}

// Completed returns how many tasks finished successfully.
func (s *MemoryStore) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
