package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"fcmbench/internal/config"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DatasetDir = filepath.Join(base, "datasets")
	cfgVal.Paths.WeightDir = filepath.Join(base, "weights")
	cfgVal.Paths.BitstreamDir = filepath.Join(base, "bitstreams")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Experiment.Name = "anchor"
	cfgVal.Experiment.DatasetTag = "SFU_HW_Obj"
	cfgVal.Experiment.Script = writeJobScript(t, base)
	cfgVal.Sweep.Sequences = []string{"SeqA", "SeqB"}
	cfgVal.Sweep.QPs = []int{8, 12}

	for _, dir := range []string{cfgVal.Paths.DatasetDir, cfgVal.Paths.BitstreamDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &cfgVal)

	return &cliTestEnv{cfg: &cfgVal, configPath: configPath, baseDir: base}
}

// writeJobScript emits a stand-in for the evaluation wrapper: it writes one
// metrics row derived from its positional sequence and QP arguments.
func writeJobScript(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "job.sh")
	script := `#!/bin/sh
out="$2"
qp="$5"
seq="$6"
printf 'sequence,qp,bitrate_kbps\n%s,%s,100.0\n' "$seq" "$qp" > "$out/metrics.csv"
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write job script: %v", err)
	}
	return path
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIRunAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--skip-preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "SeqA")
	requireContains(t, out, "SeqB")
	requireContains(t, out, "4 submitted, 0 failed")
	requireContains(t, out, "Summary written to")

	summaryPath := filepath.Join(
		env.cfg.Paths.BitstreamDir,
		"split-inference-video", "cfp_codecanchor", "SFU_HW_Obj",
		"summary_SFU_HW_Obj.csv",
	)
	if _, err := os.Stat(summaryPath); err != nil {
		t.Fatalf("expected summary at %s: %v", summaryPath, err)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "SeqA")
	requireContains(t, out, "completed")
	requireContains(t, out, "4 of 4")
}

func TestCLIRunPoolBackendOverride(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--skip-preflight", "--backend", "pool"}, env.configPath)
	if err != nil {
		t.Fatalf("run --backend pool: %v", err)
	}
	requireContains(t, out, "Pool backend")
	requireContains(t, out, "Summary written to")
}

func TestCLIStatusWithoutRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No recorded runs.")
}

func TestCLIAggregateWithFlags(t *testing.T) {
	root := t.TempDir()
	codecRoot := filepath.Join(root, "split-inference-video", "cfp_codecanchor", "SFU_HW_Obj")
	jobDir := filepath.Join(codecRoot, "SeqA_qp8")
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	csv := "sequence,qp,bitrate_kbps\nSeqA,8,100.0\n"
	if err := os.WriteFile(filepath.Join(jobDir, "metrics.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out, _, err := runCLI(t, []string{
		"aggregate", "--root", root, "--experiment", "anchor", "--tag", "SFU_HW_Obj",
	}, "")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	requireContains(t, out, "Summary written to")
	requireContains(t, out, "1 rows")
}

func TestCLIAggregateEmptyRootFails(t *testing.T) {
	_, _, err := runCLI(t, []string{
		"aggregate", "--root", t.TempDir(), "--experiment", "anchor", "--tag", "SFU_HW_Obj",
	}, "")
	if err == nil {
		t.Fatal("expected aggregate over an empty root to fail")
	}
}

func TestCLICheckReportsEnvironment(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Environment ready.")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "anchor")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "fcmbench")
}
