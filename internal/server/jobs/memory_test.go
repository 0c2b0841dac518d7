package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ClaimOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	later := &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now.Add(-time.Second)}
	earlier := &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now.Add(-time.Minute)}
	future := &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now.Add(time.Hour)}
	require.NoError(t, s.Insert(ctx, later))
	require.NoError(t, s.Insert(ctx, earlier))
	require.NoError(t, s.Insert(ctx, future))

	j, err := s.Claim(ctx, now, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, earlier.ID, j.ID)
	assert.Equal(t, models.JobRunning, j.State)
	assert.Equal(t, 1, j.Attempt)
	assert.Equal(t, now.Add(time.Minute), j.LockedUntil)

	j, err = s.Claim(ctx, now, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, later.ID, j.ID)

	_, err = s.Claim(ctx, now, time.Minute)
	require.ErrorIs(t, err, ErrNoJob)
}

func TestMemoryStore_ExpiredLeaseIsReclaimed(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Insert(ctx, &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now}))

	first, err := s.Claim(ctx, now, time.Minute)
	require.NoError(t, err)

	_, err = s.Claim(ctx, now.Add(30*time.Second), time.Minute)
	require.ErrorIs(t, err, ErrNoJob)

	again, err := s.Claim(ctx, now.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, again.Attempt)
}

func TestMemoryStore_Transitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	a := &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now.Add(-time.Second)}
	b := &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now}
	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))

	ca, err := s.Claim(ctx, now, time.Minute)
	require.NoError(t, err)
	require.Equal(t, a.ID, ca.ID)
	require.NoError(t, s.Retry(ctx, a.ID, ca.Attempt, now.Add(time.Second), "boom"))
	got, ok := s.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, models.JobPending, got.State)
	assert.Equal(t, "boom", got.LastError)

	// pending again: the old claim can no longer report
	require.ErrorIs(t, s.Bury(ctx, a.ID, ca.Attempt, "late"), ErrLeaseLost)

	cb, err := s.Claim(ctx, now, time.Minute)
	require.NoError(t, err)
	require.Equal(t, b.ID, cb.ID)
	require.NoError(t, s.Complete(ctx, b.ID, cb.Attempt))
	_, ok = s.Get(b.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Completed())

	ca, err = s.Claim(ctx, now.Add(2*time.Second), time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Bury(ctx, a.ID, ca.Attempt, "boom again"))
	got, _ = s.Get(a.ID)
	assert.Equal(t, models.JobDead, got.State)
	assert.Equal(t, "boom again", got.LastError)

	require.ErrorIs(t, s.Complete(ctx, 999, 1), ErrLeaseLost)
	require.ErrorIs(t, s.Retry(ctx, 999, 1, now, ""), ErrLeaseLost)
}

func TestMemoryStore_StaleClaimCannotReport(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Insert(ctx, &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now}))

	stale, err := s.Claim(ctx, now, time.Minute)
	require.NoError(t, err)
	current, err := s.Claim(ctx, now.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)

	require.ErrorIs(t, s.Complete(ctx, stale.ID, stale.Attempt), ErrLeaseLost)
	got, ok := s.Get(current.ID)
	require.True(t, ok)
	assert.Equal(t, models.JobRunning, got.State)
	assert.Equal(t, 2, got.Attempt)

	require.NoError(t, s.Complete(ctx, current.ID, current.Attempt))
	assert.Equal(t, 1, s.Completed())
}

func TestMemoryStore_ExpiredFinalAttemptIsBuried(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	job := &models.Job{Kind: "k", MaxAttempts: 3, RunAt: now}
	require.NoError(t, s.Insert(ctx, job))

	// every consumer dies without reporting
	for attempt := 1; attempt <= 3; attempt++ {
		j, err := s.Claim(ctx, now, time.Second)
		require.NoError(t, err)
		assert.Equal(t, attempt, j.Attempt)
		now = now.Add(2 * time.Second)
	}

	for i := 0; i < 2; i++ {
		_, err := s.Claim(ctx, now, time.Second)
		require.ErrorIs(t, err, ErrNoJob)
		now = now.Add(2 * time.Second)
	}

	got, ok := s.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, models.JobDead, got.State)
	assert.Equal(t, 3, got.Attempt)
	assert.Equal(t, "lease expired", got.LastError)
}

func TestMemoryStore_WakeOnInsert(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Insert(context.Background(), &models.Job{Kind: "k", RunAt: time.Now()}))

	select {
	case <-s.Wake():
	default:
		t.Fatal("expected wake signal")
	}
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(time.Second, 1))
	assert.Equal(t, 2*time.Second, Backoff(time.Second, 2))
	assert.Equal(t, 4*time.Second, Backoff(time.Second, 3))
	assert.Equal(t, time.Second, Backoff(time.Second, 0))
}
