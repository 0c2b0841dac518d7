package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Handler processes one task. It must be idempotent: a task may be
// delivered more than once.
type Handler interface {
	Handle(ctx context.Context, job *models.Job) error
}

type HandlerFunc func(ctx context.Context, job *models.Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *models.Job) error {
	return f(ctx, job)
}

type RunnerOptions struct {
	Workers      int
	PollInterval time.Duration
	Lease        time.Duration
	BackoffUnit  time.Duration
}

// Runner pulls tasks from a Store with a fixed pool of goroutines.
type Runner struct {
	store    Store
	handlers map[string]Handler
	opts     RunnerOptions
	metrics  *Metrics
	logger   logging.Logger
	now      func() time.Time
}

func NewRunner(store Store, opts RunnerOptions, metrics *Metrics, logger logging.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		store:    store,
		handlers: make(map[string]Handler),
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Register binds h to tasks of the given kind. Call before Run.
func (r *Runner) Register(kind string, h Handler) {
	r.handlers[kind] = h
}

// Run blocks until ctx is cancelled and every worker has returned.
func (r *Runner) Run(ctx context.Context) {
	var wake <-chan struct{}
	if w, ok := r.store.(waker); ok {
		wake = w.Wake()
	}

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.loop(ctx, worker, wake)
		}(i)
	}
	wg.Wait()
}

func (r *Runner) loop(ctx context.Context, worker int, wake <-chan struct{}) {
	log := r.logger.With("worker", worker)
	for {
		if ctx.Err() != nil {
			return
		}

		claimed, err := r.ProcessNext(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error(ctx, "job processing failed", "error", err)
		}
		if claimed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-time.After(r.opts.PollInterval):
		}
	}
}

// ProcessNext claims and runs at most one task. It reports whether a task
// was claimed.
func (r *Runner) ProcessNext(ctx context.Context) (bool, error) {
	job, err := r.store.Claim(ctx, r.now(), r.opts.Lease)
	if errors.Is(err, ErrNoJob) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}

	log := r.logger.With("job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt)

	start := time.Now()
	runErr := r.handle(ctx, job)
	elapsed := time.Since(start).Seconds()

	// state changes must land even when the runner is shutting down
	saveCtx := context.WithoutCancel(ctx)

	var outcome string
	switch {
	case runErr == nil:
		outcome = OutcomeDone
		err = r.store.Complete(saveCtx, job.ID, job.Attempt)
	case job.Attempt < job.MaxAttempts:
		outcome = OutcomeRetry
		runAt := r.now().Add(Backoff(r.opts.BackoffUnit, job.Attempt))
		err = r.store.Retry(saveCtx, job.ID, job.Attempt, runAt, runErr.Error())
	default:
		outcome = OutcomeDead
		err = r.store.Bury(saveCtx, job.ID, job.Attempt, runErr.Error())
	}

	if errors.Is(err, ErrLeaseLost) {
		log.Warn(ctx, "job lease lost, result discarded", "outcome", outcome, "error", runErr)
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("save %s: %w", outcome, err)
	}

	r.metrics.observe(job.Kind, outcome, elapsed)
	switch outcome {
	case OutcomeDone:
		log.Debug(ctx, "job done")
	case OutcomeRetry:
		log.Warn(ctx, "job failed, will retry", "error", runErr)
	default:
		log.Error(ctx, "job failed permanently", "error", runErr)
	}
	return true, nil
}

func (r *Runner) handle(ctx context.Context, job *models.Job) (err error) {
	h, ok := r.handlers[job.Kind]
	if !ok {
		return fmt.Errorf("no handler for kind %q", job.Kind)
	}

	if r.opts.Lease > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Lease)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h.Handle(ctx, job)
}
