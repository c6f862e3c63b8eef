package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fcmbench/internal/sweep"
)

// Pool runs jobs on a fixed-size local worker pool. Submit blocks the caller
// only while the pool is saturated (admission control); once a slot frees up
// it returns immediately and the job runs in the background. Completed jobs
// finish in no particular order.
type Pool struct {
	runner     Runner
	slots      chan struct{}
	wg         sync.WaitGroup
	onComplete CompletionFunc
}

// NewPool constructs the bounded-parallel backend. limit must be at least 1.
// onComplete, when non-nil, is invoked from the worker goroutine after each
// job finishes.
func NewPool(runner Runner, limit int, onComplete CompletionFunc) (*Pool, error) {
	if limit < 1 {
		return nil, fmt.Errorf("pool concurrency limit must be at least 1, got %d", limit)
	}
	return &Pool{
		runner:     runner,
		slots:      make(chan struct{}, limit),
		onComplete: onComplete,
	}, nil
}

// Submit admits the job into the pool, blocking while all slots are busy.
func (p *Pool) Submit(ctx context.Context, job sweep.Job) (Handle, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return Handle{ExitCode: -1}, fmt.Errorf("%w: %v", ErrSubmission, ctx.Err())
	}

	handle := Handle{ID: uuid.NewString(), ExitCode: -1}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.slots }()

		code, err := p.runner.Run(ctx, job)
		if err == nil && code != 0 {
			err = fmt.Errorf("%w: %s (exit %d)", ErrJobFailed, job.ScriptPath, code)
		}
		if p.onComplete != nil {
			p.onComplete(job, handle, code, err)
		}
	}()
	return handle, nil
}

// Barrier blocks until every admitted job has completed, regardless of
// individual success or failure.
func (p *Pool) Barrier(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Backend = (*Pool)(nil)
