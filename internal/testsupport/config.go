// Package testsupport provides fixtures shared across package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"fcmbench/internal/config"
)

// NewConfig produces a validated config seeded with unique temp directories
// per test. The dataset, bitstream, and log directories exist on return.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DatasetDir = filepath.Join(base, "datasets")
	cfg.Paths.WeightDir = filepath.Join(base, "weights")
	cfg.Paths.BitstreamDir = filepath.Join(base, "bitstreams")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Experiment.Name = "anchor"
	cfg.Experiment.DatasetTag = "SFU_HW_Obj"
	cfg.Sweep.Sequences = []string{"SeqA", "SeqB"}
	cfg.Sweep.QPs = []int{8, 12}
	cfg.Dispatch.Slurm.JobName = "fcm-anchor"

	for _, dir := range []string{cfg.Paths.DatasetDir, cfg.Paths.BitstreamDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WriteScript writes an executable script into a temp directory and returns
// its path.
func WriteScript(t testing.TB, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}
