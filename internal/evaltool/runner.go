package evaltool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"fcmbench/internal/logging"
	"fcmbench/internal/sweep"
)

var commandContext = exec.CommandContext

// Runner executes job descriptors as child processes. Each job's combined
// output is captured to job.log inside its output directory.
type Runner struct {
	logger *slog.Logger
}

// NewRunner constructs a process runner.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logging.NewComponentLogger(logger, "evaltool")}
}

// Run executes the job to completion and returns its exit code. A failure to
// spawn the process is an error; a non-zero exit is not.
func (r *Runner) Run(ctx context.Context, job sweep.Job) (int, error) {
	if job.ScriptPath == "" {
		return -1, errors.New("job script path required")
	}

	cmd := commandContext(ctx, job.ScriptPath, job.Args...)
	if len(job.Env) > 0 {
		cmd.Env = append(cmd.Environ(), job.Env...)
	}

	if job.OutputDir != "" {
		if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
			return -1, fmt.Errorf("create output directory %q: %w", job.OutputDir, err)
		}
		logFile, err := os.Create(filepath.Join(job.OutputDir, "job.log"))
		if err != nil {
			return -1, fmt.Errorf("create job log: %w", err)
		}
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	r.logger.Debug("launching job",
		logging.String("command", job.ScriptPath),
		logging.String(logging.FieldSequence, job.Sequence),
		logging.String(logging.FieldQP, job.QP),
	)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("run %s: %w", job.ScriptPath, err)
}
