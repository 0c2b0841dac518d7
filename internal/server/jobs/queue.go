package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Queue is the producer side of the task pipeline.
type Queue struct {
	store       Store
	maxAttempts int
	now         func() time.Time
}

func NewQueue(store Store, maxAttempts int) *Queue {
	return &Queue{store: store, maxAttempts: maxAttempts, now: time.Now}
}

// Enqueue stores a task of the given kind, due immediately. payload is
// encoded as JSON.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload any) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	job := &models.Job{
		Kind:        kind,
		Payload:     body,
		MaxAttempts: q.maxAttempts,
		RunAt:       q.now(),
	}
	if err := q.store.Insert(ctx, job); err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return job.ID, nil
}
