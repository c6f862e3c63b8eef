package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"testing"

	"fcmbench/internal/sweep"
)

func TestSlurmRequiresJobName(t *testing.T) {
	if _, err := NewSlurm(SlurmOptions{}); err == nil {
		t.Fatal("expected error without job name")
	}
}

func TestSbatchArgsIncludeResourcesAndJobArgs(t *testing.T) {
	backend, err := NewSlurm(SlurmOptions{
		JobName:     "fcm-anchor",
		GPUs:        1,
		CPUs:        4,
		Memory:      "16G",
		Reservation: "vcm",
	})
	if err != nil {
		t.Fatalf("NewSlurm: %v", err)
	}

	job := sweep.Job{
		ScriptPath: "/opt/run_eval.sh",
		Args:       []string{"/data", "/out", "anchor", "cuda", "12", "SeqA", "--codec.x=1"},
	}
	args := backend.sbatchArgs(job, false)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--job-name=fcm-anchor",
		"--gres=gpu:1",
		"--cpus-per-task=4",
		"--mem=16G",
		"--reservation=vcm",
		"/opt/run_eval.sh /data /out anchor cuda 12 SeqA --codec.x=1",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in sbatch args: %q", want, joined)
		}
	}
	if strings.Contains(joined, "--dependency") {
		t.Fatalf("non-singleton submission must not carry a dependency: %q", joined)
	}

	singleton := strings.Join(backend.sbatchArgs(job, true), " ")
	if !strings.Contains(singleton, "--dependency=singleton") {
		t.Fatalf("singleton submission missing dependency flag: %q", singleton)
	}
}

func TestParseSbatchOutput(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "4242\n", want: "4242"},
		{in: "4242;cluster0\n", want: "4242"},
		{in: "Submitted batch job 77\n", want: "77"},
		{in: "", wantErr: true},
		{in: "sbatch: error: invalid partition\n", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseSbatchOutput(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseSbatchOutput(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseSbatchOutput(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseSbatchOutput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlurmSubmitParsesJobID(t *testing.T) {
	original := submitCommand
	submitCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "echo", "512")
	}
	t.Cleanup(func() { submitCommand = original })

	backend, err := NewSlurm(SlurmOptions{JobName: "fcm-anchor"})
	if err != nil {
		t.Fatalf("NewSlurm: %v", err)
	}
	handle, err := backend.Submit(context.Background(), sweep.Job{ScriptPath: "run.sh"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if handle.ID != "512" {
		t.Fatalf("unexpected handle id %q", handle.ID)
	}
}

func TestSlurmSubmitWrapsSchedulerUnavailable(t *testing.T) {
	original := submitCommand
	submitCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/nonexistent/sbatch")
	}
	t.Cleanup(func() { submitCommand = original })

	backend, err := NewSlurm(SlurmOptions{JobName: "fcm-anchor"})
	if err != nil {
		t.Fatalf("NewSlurm: %v", err)
	}
	if _, err := backend.Submit(context.Background(), sweep.Job{ScriptPath: "run.sh"}); !errors.Is(err, ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
}

// fakeScheduler interprets submitted sbatch argument lists the way a cluster
// scheduler honoring singleton dependencies would: a singleton job with a
// given name may not start until every earlier job with that name finished.
type fakeScheduler struct {
	jobs []*fakeJob
}

type fakeJob struct {
	id        int
	name      string
	singleton bool
	started   bool
	finished  bool
}

func (s *fakeScheduler) submit(args []string) string {
	job := &fakeJob{id: len(s.jobs) + 1}
	for _, arg := range args {
		if name, ok := strings.CutPrefix(arg, "--job-name="); ok {
			job.name = name
		}
		if arg == "--dependency=singleton" {
			job.singleton = true
		}
	}
	s.jobs = append(s.jobs, job)
	return strconv.Itoa(job.id)
}

func (s *fakeScheduler) startEligible() []*fakeJob {
	var started []*fakeJob
	for i, job := range s.jobs {
		if job.started {
			continue
		}
		if job.singleton {
			blocked := false
			for _, prior := range s.jobs[:i] {
				if prior.name == job.name && !prior.finished {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}
		}
		job.started = true
		started = append(started, job)
	}
	return started
}

func TestSingletonAggregatorWaitsForSweepJobs(t *testing.T) {
	scheduler := &fakeScheduler{}
	original := submitCommand
	submitCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "echo", scheduler.submit(args))
	}
	t.Cleanup(func() { submitCommand = original })

	backend, err := NewSlurm(SlurmOptions{JobName: "fcm-anchor"})
	if err != nil {
		t.Fatalf("NewSlurm: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		job := sweep.Job{ScriptPath: "run.sh", Args: []string{fmt.Sprintf("seq%d", i)}}
		if _, err := backend.Submit(ctx, job); err != nil {
			t.Fatalf("Submit sweep job %d: %v", i, err)
		}
	}
	if _, err := backend.SubmitSingleton(ctx, sweep.Job{ScriptPath: "fcmbench", Args: []string{"aggregate"}}); err != nil {
		t.Fatalf("SubmitSingleton: %v", err)
	}
	if err := backend.Barrier(ctx); err != nil {
		t.Fatalf("Barrier: %v", err)
	}

	started := scheduler.startEligible()
	if len(started) != 3 {
		t.Fatalf("expected 3 sweep jobs to start, got %d", len(started))
	}
	for _, job := range started {
		if job.singleton {
			t.Fatal("aggregator started before sweep jobs finished")
		}
	}

	// Finish all but one sweep job: the aggregator must stay queued.
	scheduler.jobs[0].finished = true
	scheduler.jobs[1].finished = true
	if late := scheduler.startEligible(); len(late) != 0 {
		t.Fatalf("aggregator started with a sweep job still running: %+v", late)
	}

	scheduler.jobs[2].finished = true
	final := scheduler.startEligible()
	if len(final) != 1 || !final[0].singleton {
		t.Fatalf("expected only the singleton aggregator to start, got %+v", final)
	}
}
