package dispatch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"fcmbench/internal/sweep"
)

var submitCommand = exec.CommandContext

// SlurmOptions carries the batch-queue submission parameters forwarded to
// sbatch. JobName doubles as the singleton ordering key.
type SlurmOptions struct {
	Binary      string
	JobName     string
	GPUs        int
	CPUs        int
	Memory      string
	Reservation string
}

// Slurm submits jobs to a cluster scheduler and returns as soon as each
// request is accepted. The returned handles represent pending state, not
// completion; the driver has no visibility into remote execution.
type Slurm struct {
	opts SlurmOptions
}

// NewSlurm constructs the batch-queue backend.
func NewSlurm(opts SlurmOptions) (*Slurm, error) {
	if strings.TrimSpace(opts.JobName) == "" {
		return nil, fmt.Errorf("slurm backend requires a job name")
	}
	if opts.Binary == "" {
		opts.Binary = "sbatch"
	}
	return &Slurm{opts: opts}, nil
}

// Submit enqueues the job with the shared job name.
func (b *Slurm) Submit(ctx context.Context, job sweep.Job) (Handle, error) {
	return b.submit(ctx, job, false)
}

// SubmitSingleton enqueues a job that the scheduler must not start before
// every previously submitted job with the same name has finished. Used for
// the aggregation step so the cluster, not this process, enforces the wait.
func (b *Slurm) SubmitSingleton(ctx context.Context, job sweep.Job) (Handle, error) {
	return b.submit(ctx, job, true)
}

func (b *Slurm) submit(ctx context.Context, job sweep.Job, singleton bool) (Handle, error) {
	args := b.sbatchArgs(job, singleton)
	cmd := submitCommand(ctx, b.opts.Binary, args...)
	if len(job.Env) > 0 {
		cmd.Env = append(cmd.Environ(), job.Env...)
	}
	out, err := cmd.Output()
	if err != nil {
		return Handle{}, fmt.Errorf("%w: sbatch: %v", ErrSubmission, err)
	}
	id, err := parseSbatchOutput(string(out))
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	return Handle{ID: id, ExitCode: -1}, nil
}

func (b *Slurm) sbatchArgs(job sweep.Job, singleton bool) []string {
	args := []string{"--job-name=" + b.opts.JobName, "--parsable"}
	if b.opts.GPUs > 0 {
		args = append(args, fmt.Sprintf("--gres=gpu:%d", b.opts.GPUs))
	}
	if b.opts.CPUs > 0 {
		args = append(args, fmt.Sprintf("--cpus-per-task=%d", b.opts.CPUs))
	}
	if b.opts.Memory != "" {
		args = append(args, "--mem="+b.opts.Memory)
	}
	if b.opts.Reservation != "" {
		args = append(args, "--reservation="+b.opts.Reservation)
	}
	if singleton {
		args = append(args, "--dependency=singleton")
	}
	args = append(args, job.ScriptPath)
	args = append(args, job.Args...)
	return args
}

// Barrier returns immediately: completion ordering is delegated to the
// scheduler via SubmitSingleton, and this process may exit before remote
// jobs run.
func (b *Slurm) Barrier(ctx context.Context) error {
	return ctx.Err()
}

func parseSbatchOutput(out string) (string, error) {
	// --parsable prints "jobid" or "jobid;cluster". Older setups print
	// "Submitted batch job <id>".
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return "", fmt.Errorf("empty sbatch output")
	}
	line := trimmed
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if rest, ok := strings.CutPrefix(line, "Submitted batch job "); ok {
		line = rest
	}
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	for _, r := range line {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("unexpected sbatch output %q", trimmed)
		}
	}
	return line, nil
}

var _ Backend = (*Slurm)(nil)
