package dispatch

import (
	"context"
	"errors"

	"fcmbench/internal/sweep"
)

var (
	// ErrSubmission reports that a backend could not accept a job. Fatal to
	// that job only; the sweep continues.
	ErrSubmission = errors.New("job submission failed")
	// ErrJobFailed reports a job that ran but exited non-zero.
	ErrJobFailed = errors.New("job exited non-zero")
)

// Handle identifies a submitted job. Opaque to callers: it is only carried
// into logs and the run ledger, never inspected for scheduling decisions.
type Handle struct {
	ID string
	// ExitCode is meaningful only for the immediate backend, where the job
	// has already finished by the time Submit returns. Other backends leave
	// it at -1.
	ExitCode int
}

// Runner executes one job to completion and reports its exit code.
type Runner interface {
	Run(ctx context.Context, job sweep.Job) (int, error)
}

// CompletionFunc observes a job finishing on an asynchronous backend.
type CompletionFunc func(job sweep.Job, handle Handle, exitCode int, err error)

// Backend accepts jobs and provides a completion barrier.
type Backend interface {
	// Submit hands one job to the backend. The error wraps ErrSubmission
	// when the execution mechanism is unavailable and ErrJobFailed when a
	// synchronously-run job exits non-zero.
	Submit(ctx context.Context, job sweep.Job) (Handle, error)
	// Barrier blocks until every submitted job has completed. No-op for the
	// immediate backend (submission is already synchronous) and for slurm
	// (ordering is delegated to the scheduler).
	Barrier(ctx context.Context) error
}
