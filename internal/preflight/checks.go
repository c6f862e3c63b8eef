// Package preflight validates the environment before a sweep run starts.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"fcmbench/internal/config"
	"fcmbench/internal/deps"
)

// Result captures the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the floor below which a sweep refuses to start. Bitstream
// output for a full sweep comfortably fits, but a nearly-full disk fails
// mid-run with confusing external tool errors instead.
const minFreeBytes = 1 << 30

// Run executes every check relevant for the configured backend.
func Run(cfg *config.Config) []Result {
	results := make([]Result, 0, 4)
	results = append(results, checkBinaries(cfg)...)
	results = append(results, checkDatasetDir(cfg))
	results = append(results, checkFreeSpace(cfg))
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

func checkBinaries(cfg *config.Config) []Result {
	requirements := deps.ForBackend(
		cfg.Dispatch.Backend,
		cfg.EvalBinary(),
		cfg.SbatchBinary(),
		cfg.Experiment.Script,
	)
	statuses := deps.CheckBinaries(requirements)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available}
		if status.Available {
			result.Detail = "found"
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

func checkDatasetDir(cfg *config.Config) Result {
	const name = "Dataset directory"
	info, err := os.Stat(cfg.Paths.DatasetDir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat %s: %v", cfg.Paths.DatasetDir, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not a directory", cfg.Paths.DatasetDir)}
	}
	return Result{Name: name, Passed: true, Detail: cfg.Paths.DatasetDir}
}

func checkFreeSpace(cfg *config.Config) Result {
	const name = "Output free space"
	var stat unix.Statfs_t
	if err := unix.Statfs(cfg.Paths.BitstreamDir, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs %s: %v", cfg.Paths.BitstreamDir, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%d MiB free, need at least %d MiB", free>>20, int64(minFreeBytes)>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d GiB free", free>>30)}
}
