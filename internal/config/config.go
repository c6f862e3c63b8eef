package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DatasetDir   string `toml:"dataset_dir"`
	WeightDir    string `toml:"weight_dir"`
	BitstreamDir string `toml:"bitstream_dir"`
	LogDir       string `toml:"log_dir"`
}

// Experiment identifies one evaluation campaign and the external tool inputs
// it forwards verbatim.
type Experiment struct {
	Name        string `toml:"name"`
	DatasetTag  string `toml:"dataset_tag"`
	Device      string `toml:"device"`
	CodecConfig string `toml:"codec_config"`
	CodecParams string `toml:"codec_params"`
	// Script optionally points at a wrapper script invoked with the fixed
	// positional argument order instead of the evaluation tool directly.
	Script string `toml:"script"`
	CPUISA string `toml:"cpu_isa"`
}

// Sweep describes the combination space one run enumerates.
type Sweep struct {
	Mode      string   `toml:"mode"`
	Sequences []string `toml:"sequences"`
	QPs       []int    `toml:"qps"`
}

// Slurm contains batch-queue submission options.
type Slurm struct {
	GPUs        int    `toml:"gpus"`
	CPUs        int    `toml:"cpus"`
	Memory      string `toml:"memory"`
	Reservation string `toml:"reservation"`
	JobName     string `toml:"job_name"`
}

// Dispatch selects the execution backend for sweep jobs.
type Dispatch struct {
	Backend     string `toml:"backend"`
	Concurrency int    `toml:"concurrency"`
	Slurm       Slurm  `toml:"slurm"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fcmbench.
//
// Sections by subsystem:
//   - Paths: dataset, model weight, and bitstream output directories
//   - Experiment: campaign name, dataset tag, device, codec parameters
//   - Sweep: sequences and QP values (or bitstream-matched mode)
//   - Dispatch: immediate, pool, or slurm backend selection
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Experiment Experiment `toml:"experiment"`
	Sweep      Sweep      `toml:"sweep"`
	Dispatch   Dispatch   `toml:"dispatch"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fcmbench/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fcmbench.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BitstreamDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EvalBinary returns the external evaluation tool executable name.
func (c *Config) EvalBinary() string {
	return "compressai-vision-eval"
}

// SbatchBinary returns the cluster submission executable name.
func (c *Config) SbatchBinary() string {
	return "sbatch"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
