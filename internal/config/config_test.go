package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fcmbench/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[experiment]
name = "anchor"
dataset_tag = "SFU_HW_Obj"

[sweep]
sequences = ["Traffic_2560x1600_30"]
qps = [8, 10]
`

func TestLoadAppliesDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := writeConfig(t, minimalConfig)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}

	wantBitstreams := filepath.Join(tempHome, ".local", "share", "fcmbench", "bitstreams")
	if cfg.Paths.BitstreamDir != wantBitstreams {
		t.Fatalf("unexpected bitstream dir: got %q want %q", cfg.Paths.BitstreamDir, wantBitstreams)
	}
	if cfg.Experiment.Device != "cuda" {
		t.Fatalf("expected default device cuda, got %q", cfg.Experiment.Device)
	}
	if cfg.Experiment.CodecConfig != "eval_cfp_codec" {
		t.Fatalf("unexpected codec config: %q", cfg.Experiment.CodecConfig)
	}
	if cfg.Sweep.Mode != "qp" {
		t.Fatalf("expected default sweep mode qp, got %q", cfg.Sweep.Mode)
	}
	if cfg.Dispatch.Backend != "immediate" {
		t.Fatalf("expected default backend immediate, got %q", cfg.Dispatch.Backend)
	}
	if cfg.Dispatch.Slurm.JobName != "fcm-anchor" {
		t.Fatalf("expected derived slurm job name, got %q", cfg.Dispatch.Slurm.JobName)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadMissingFileUsesDefaultsButFailsValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected validation error without experiment name")
	}
	if !strings.Contains(err.Error(), "experiment.name") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsEmptySequences(t *testing.T) {
	path := writeConfig(t, `
[experiment]
name = "anchor"
dataset_tag = "SFU_HW_Obj"

[sweep]
sequences = []
qps = [8]
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "sweep.sequences") {
		t.Fatalf("expected sequences error, got %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[dispatch]
backend = "mesos"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "dispatch.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestLoadBitstreamModeNeedsNoQPs(t *testing.T) {
	path := writeConfig(t, `
[experiment]
name = "anchor"
dataset_tag = "SFU_HW_Obj"

[sweep]
mode = "bitstream"
sequences = ["Traffic_2560x1600_30"]
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sweep.Mode != "bitstream" {
		t.Fatalf("unexpected mode: %q", cfg.Sweep.Mode)
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Experiment.Name != "anchor" {
		t.Fatalf("unexpected sample experiment name: %q", cfg.Experiment.Name)
	}
}
