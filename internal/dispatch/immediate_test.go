package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"fcmbench/internal/sweep"
)

type funcRunner func(ctx context.Context, job sweep.Job) (int, error)

func (f funcRunner) Run(ctx context.Context, job sweep.Job) (int, error) {
	return f(ctx, job)
}

func TestImmediateSubmitRunsToCompletion(t *testing.T) {
	var ran []string
	backend := NewImmediate(funcRunner(func(_ context.Context, job sweep.Job) (int, error) {
		ran = append(ran, job.Sequence)
		return 0, nil
	}))

	handle, err := backend.Submit(context.Background(), sweep.Job{ScriptPath: "eval", Sequence: "SeqA"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if handle.ExitCode != 0 {
		t.Fatalf("expected exit code 0 on handle, got %d", handle.ExitCode)
	}
	if len(ran) != 1 || ran[0] != "SeqA" {
		t.Fatalf("job did not run synchronously: %v", ran)
	}
}

func TestImmediateSubmitReportsNonZeroExit(t *testing.T) {
	backend := NewImmediate(funcRunner(func(context.Context, sweep.Job) (int, error) {
		return 3, nil
	}))

	handle, err := backend.Submit(context.Background(), sweep.Job{ScriptPath: "eval"})
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}
	if handle.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", handle.ExitCode)
	}
}

func TestImmediateSubmitWrapsSpawnFailure(t *testing.T) {
	backend := NewImmediate(funcRunner(func(context.Context, sweep.Job) (int, error) {
		return -1, errors.New("spawn failed")
	}))

	if _, err := backend.Submit(context.Background(), sweep.Job{ScriptPath: "eval"}); !errors.Is(err, ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
}

func TestImmediateBarrierReturnsWithoutWaiting(t *testing.T) {
	backend := NewImmediate(funcRunner(func(context.Context, sweep.Job) (int, error) {
		return 0, nil
	}))
	for i := 0; i < 5; i++ {
		if _, err := backend.Submit(context.Background(), sweep.Job{ScriptPath: "eval"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	start := time.Now()
	if err := backend.Barrier(context.Background()); err != nil {
		t.Fatalf("Barrier: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("barrier waited %v; all work should be done at submit-return time", elapsed)
	}
}
