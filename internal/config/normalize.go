package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeExperiment(); err != nil {
		return err
	}
	c.normalizeSweep()
	c.normalizeDispatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DatasetDir, err = expandPath(c.Paths.DatasetDir); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if c.Paths.WeightDir, err = expandPath(c.Paths.WeightDir); err != nil {
		return fmt.Errorf("paths.weight_dir: %w", err)
	}
	if c.Paths.BitstreamDir, err = expandPath(c.Paths.BitstreamDir); err != nil {
		return fmt.Errorf("paths.bitstream_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExperiment() error {
	c.Experiment.Name = strings.TrimSpace(c.Experiment.Name)
	c.Experiment.DatasetTag = strings.TrimSpace(c.Experiment.DatasetTag)
	c.Experiment.Device = strings.TrimSpace(c.Experiment.Device)
	c.Experiment.CodecConfig = strings.TrimSpace(c.Experiment.CodecConfig)
	c.Experiment.CodecParams = strings.TrimSpace(c.Experiment.CodecParams)
	c.Experiment.CPUISA = strings.TrimSpace(c.Experiment.CPUISA)
	if c.Experiment.Device == "" {
		c.Experiment.Device = defaultDevice
	}
	if c.Experiment.CodecConfig == "" {
		c.Experiment.CodecConfig = defaultCodecConfig
	}
	if script := strings.TrimSpace(c.Experiment.Script); script != "" {
		expanded, err := expandPath(script)
		if err != nil {
			return fmt.Errorf("experiment.script: %w", err)
		}
		c.Experiment.Script = expanded
	} else {
		c.Experiment.Script = ""
	}
	return nil
}

func (c *Config) normalizeSweep() {
	c.Sweep.Mode = strings.ToLower(strings.TrimSpace(c.Sweep.Mode))
	if c.Sweep.Mode == "" {
		c.Sweep.Mode = defaultSweepMode
	}
	sequences := make([]string, 0, len(c.Sweep.Sequences))
	for _, seq := range c.Sweep.Sequences {
		if trimmed := strings.TrimSpace(seq); trimmed != "" {
			sequences = append(sequences, trimmed)
		}
	}
	c.Sweep.Sequences = sequences
}

func (c *Config) normalizeDispatch() {
	c.Dispatch.Backend = strings.ToLower(strings.TrimSpace(c.Dispatch.Backend))
	if c.Dispatch.Backend == "" {
		c.Dispatch.Backend = defaultBackend
	}
	if c.Dispatch.Concurrency <= 0 {
		c.Dispatch.Concurrency = defaultConcurrency
	}
	c.Dispatch.Slurm.JobName = strings.TrimSpace(c.Dispatch.Slurm.JobName)
	if c.Dispatch.Slurm.JobName == "" && c.Experiment.Name != "" {
		c.Dispatch.Slurm.JobName = "fcm-" + c.Experiment.Name
	}
	c.Dispatch.Slurm.Memory = strings.TrimSpace(c.Dispatch.Slurm.Memory)
	if c.Dispatch.Slurm.Memory == "" {
		c.Dispatch.Slurm.Memory = defaultSlurmMemory
	}
	c.Dispatch.Slurm.Reservation = strings.TrimSpace(c.Dispatch.Slurm.Reservation)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
