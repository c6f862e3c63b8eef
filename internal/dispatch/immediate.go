package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fcmbench/internal/sweep"
)

// Immediate runs each job synchronously in the caller's goroutine. Submit
// returns only after the job has finished, so Barrier has nothing to wait
// for.
type Immediate struct {
	runner Runner
}

// NewImmediate constructs the synchronous backend.
func NewImmediate(runner Runner) *Immediate {
	return &Immediate{runner: runner}
}

// Submit runs the job to completion. The returned handle carries the exit
// code; a non-zero exit yields an error wrapping ErrJobFailed.
func (b *Immediate) Submit(ctx context.Context, job sweep.Job) (Handle, error) {
	handle := Handle{ID: uuid.NewString(), ExitCode: -1}
	code, err := b.runner.Run(ctx, job)
	if err != nil {
		return handle, fmt.Errorf("%w: %s: %v", ErrSubmission, job.ScriptPath, err)
	}
	handle.ExitCode = code
	if code != 0 {
		return handle, fmt.Errorf("%w: %s (exit %d)", ErrJobFailed, job.ScriptPath, code)
	}
	return handle, nil
}

// Barrier is trivially satisfied: every Submit already blocked.
func (b *Immediate) Barrier(ctx context.Context) error {
	return ctx.Err()
}

var _ Backend = (*Immediate)(nil)
