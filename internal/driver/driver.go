package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"fcmbench/internal/aggregate"
	"fcmbench/internal/config"
	"fcmbench/internal/dispatch"
	"fcmbench/internal/evaltool"
	"fcmbench/internal/logging"
	"fcmbench/internal/preflight"
	"fcmbench/internal/runlog"
	"fcmbench/internal/sweep"
)

// ErrAllJobsFailed reports a sweep in which not a single job succeeded.
var ErrAllJobsFailed = errors.New("all sweep jobs failed")

// Options tunes a single run.
type Options struct {
	// SelfPath is the executable resubmitted as the aggregation job on the
	// slurm backend. Defaults to os.Executable.
	SelfPath string
	// Runner overrides the process runner, used by tests.
	Runner dispatch.Runner
	// SkipPreflight bypasses environment checks, used by tests.
	SkipPreflight bool
}

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Submitted int
	Failed    int
	Skipped   int
	// Delegated is true on the slurm backend: aggregation was handed to the
	// scheduler and this process has no completion visibility.
	Delegated bool
	Summary   *aggregate.Summary
	Jobs      []*runlog.Job
}

// Run executes one sweep according to the configuration.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Result, error) {
	log := logging.NewComponentLogger(logger, "driver")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "fcmbench.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another sweep is already running against this output root")
	}
	defer func() { _ = lock.Unlock() }()

	if !opts.SkipPreflight {
		if failed := preflight.Failed(preflight.Run(cfg)); len(failed) > 0 {
			details := make([]string, 0, len(failed))
			for _, result := range failed {
				details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
			}
			return nil, fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
		}
	}

	store, err := runlog.Open(filepath.Join(cfg.Paths.LogDir, "runs.db"))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	runID := uuid.NewString()
	builder := evaltool.NewBuilder(cfg)
	runner := opts.Runner
	if runner == nil {
		runner = evaltool.NewRunner(logger)
	}

	log.Info("starting sweep",
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldBackend, cfg.Dispatch.Backend),
		logging.String("experiment", cfg.Experiment.Name),
		logging.String("mode", cfg.Sweep.Mode),
	)

	combos, skipped, err := enumerate(cfg, builder, log)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Skipped: skipped}
	switch cfg.Dispatch.Backend {
	case "slurm":
		err = runSlurm(ctx, cfg, log, store, builder, combos, result, opts)
	default:
		err = runLocal(ctx, cfg, log, store, builder, runner, combos, result)
	}
	if err != nil {
		return result, err
	}

	result.Jobs, err = store.JobsForRun(ctx, runID)
	if err != nil {
		return result, err
	}

	stats, err := store.StatsForRun(ctx, runID)
	if err != nil {
		return result, err
	}
	result.Failed = stats.Failed
	if stats.AllFailed() {
		return result, ErrAllJobsFailed
	}
	return result, nil
}

// enumerate expands the sweep space. In bitstream mode, files without a
// parseable QP are skipped with a warning rather than aborting the sweep.
func enumerate(cfg *config.Config, builder *evaltool.Builder, log *slog.Logger) ([]sweep.Combination, int, error) {
	space := sweep.Space{Sequences: cfg.Sweep.Sequences, QPs: cfg.Sweep.QPs}
	if cfg.Sweep.Mode != "bitstream" {
		return space.EnumerateQP(), 0, nil
	}

	combos, skips, err := space.MatchBitstreams(builder.CodecRoot())
	if err != nil {
		return nil, 0, err
	}
	for _, skip := range skips {
		log.Warn("skipping combination",
			logging.String("file", skip.File),
			logging.Error(skip.Err),
		)
	}
	return combos, len(skips), nil
}

// runLocal drives the immediate and pool backends, then aggregates
// in-process once the barrier clears.
func runLocal(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	store *runlog.Store,
	builder *evaltool.Builder,
	runner dispatch.Runner,
	combos []sweep.Combination,
	result *Result,
) error {
	var mu sync.Mutex
	ledgerIDs := make(map[string]int64, len(combos))

	onComplete := func(job sweep.Job, _ dispatch.Handle, exitCode int, err error) {
		mu.Lock()
		id, known := ledgerIDs[job.OutputDir]
		mu.Unlock()
		if !known {
			return
		}
		message := ""
		if err != nil {
			message = err.Error()
		}
		if markErr := store.MarkFinished(context.WithoutCancel(ctx), id, exitCode, message); markErr != nil {
			log.Error("record job completion", logging.Error(markErr))
		}
	}

	var backend dispatch.Backend
	switch cfg.Dispatch.Backend {
	case "pool":
		pool, err := dispatch.NewPool(runner, cfg.Dispatch.Concurrency, onComplete)
		if err != nil {
			return err
		}
		backend = pool
	default:
		backend = dispatch.NewImmediate(runner)
	}

	for _, combo := range combos {
		job := builder.Job(combo)
		record, err := store.RecordSubmitted(ctx, result.RunID, combo.Sequence, combo.QP, "")
		if err != nil {
			return err
		}
		mu.Lock()
		ledgerIDs[job.OutputDir] = record.ID
		mu.Unlock()

		handle, err := backend.Submit(ctx, job)
		result.Submitted++
		switch {
		case err == nil && cfg.Dispatch.Backend != "pool":
			// Immediate: the job already finished.
			if markErr := store.MarkFinished(ctx, record.ID, handle.ExitCode, ""); markErr != nil {
				return markErr
			}
		case errors.Is(err, dispatch.ErrJobFailed), errors.Is(err, dispatch.ErrSubmission):
			log.Warn("job failed",
				logging.String(logging.FieldSequence, combo.Sequence),
				logging.String(logging.FieldQP, combo.QP),
				logging.Error(err),
			)
			if markErr := store.MarkFinished(ctx, record.ID, handle.ExitCode, err.Error()); markErr != nil {
				return markErr
			}
		case err != nil:
			return err
		}
	}

	if err := backend.Barrier(ctx); err != nil {
		return fmt.Errorf("completion barrier: %w", err)
	}

	summary, err := aggregate.New(log).Aggregate(
		cfg.Paths.BitstreamDir,
		cfg.Experiment.Name,
		cfg.Experiment.DatasetTag,
	)
	if err != nil {
		return err
	}
	result.Summary = &summary
	return nil
}

// runSlurm submits every combination to the cluster and enqueues the
// aggregation step as a singleton job under the shared job name. The
// scheduler enforces the barrier; this process exits once submissions are
// accepted.
func runSlurm(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	store *runlog.Store,
	builder *evaltool.Builder,
	combos []sweep.Combination,
	result *Result,
	opts Options,
) error {
	backend, err := dispatch.NewSlurm(dispatch.SlurmOptions{
		Binary:      cfg.SbatchBinary(),
		JobName:     cfg.Dispatch.Slurm.JobName,
		GPUs:        cfg.Dispatch.Slurm.GPUs,
		CPUs:        cfg.Dispatch.Slurm.CPUs,
		Memory:      cfg.Dispatch.Slurm.Memory,
		Reservation: cfg.Dispatch.Slurm.Reservation,
	})
	if err != nil {
		return err
	}

	for _, combo := range combos {
		job := builder.Job(combo)
		handle, err := backend.Submit(ctx, job)
		result.Submitted++
		if err != nil {
			log.Warn("submission rejected",
				logging.String(logging.FieldSequence, combo.Sequence),
				logging.String(logging.FieldQP, combo.QP),
				logging.Error(err),
			)
			record, recErr := store.RecordSubmitted(ctx, result.RunID, combo.Sequence, combo.QP, "")
			if recErr != nil {
				return recErr
			}
			if markErr := store.MarkFinished(ctx, record.ID, -1, err.Error()); markErr != nil {
				return markErr
			}
			continue
		}
		if _, err := store.RecordSubmitted(ctx, result.RunID, combo.Sequence, combo.QP, handle.ID); err != nil {
			return err
		}
		log.Info("job queued",
			logging.String(logging.FieldSequence, combo.Sequence),
			logging.String(logging.FieldQP, combo.QP),
			logging.String(logging.FieldJobID, handle.ID),
		)
	}

	if err := backend.Barrier(ctx); err != nil {
		return err
	}

	selfPath := opts.SelfPath
	if selfPath == "" {
		selfPath, err = os.Executable()
		if err != nil {
			return fmt.Errorf("resolve own executable for aggregation job: %w", err)
		}
	}
	handle, err := backend.SubmitSingleton(ctx, builder.AggregateJob(selfPath))
	if err != nil {
		return fmt.Errorf("queue aggregation job: %w", err)
	}

	result.Delegated = true
	log.Info("aggregation delegated to scheduler",
		logging.String(logging.FieldJobID, handle.ID),
		logging.String("job_name", cfg.Dispatch.Slurm.JobName),
	)
	return nil
}
