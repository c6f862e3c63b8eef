package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExperiment(); err != nil {
		return err
	}
	if err := c.validateSweep(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExperiment() error {
	if c.Experiment.Name == "" {
		return errors.New("experiment.name must be set")
	}
	if c.Experiment.DatasetTag == "" {
		return errors.New("experiment.dataset_tag must be set")
	}
	return nil
}

func (c *Config) validateSweep() error {
	switch c.Sweep.Mode {
	case "qp", "bitstream":
	default:
		return fmt.Errorf("sweep.mode must be %q or %q, got %q", "qp", "bitstream", c.Sweep.Mode)
	}
	if len(c.Sweep.Sequences) == 0 {
		return errors.New("sweep.sequences must list at least one sequence")
	}
	if c.Sweep.Mode == "qp" && len(c.Sweep.QPs) == 0 {
		return errors.New("sweep.qps must list at least one QP value")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	switch c.Dispatch.Backend {
	case "immediate", "pool", "slurm":
	default:
		return fmt.Errorf("dispatch.backend must be one of immediate, pool, slurm; got %q", c.Dispatch.Backend)
	}
	if c.Dispatch.Backend == "pool" && c.Dispatch.Concurrency < 1 {
		return errors.New("dispatch.concurrency must be at least 1 for the pool backend")
	}
	if c.Dispatch.Backend == "slurm" {
		if c.Dispatch.Slurm.JobName == "" {
			return errors.New("dispatch.slurm.job_name must be set (or derive from experiment.name)")
		}
		if c.Dispatch.Slurm.GPUs < 0 || c.Dispatch.Slurm.CPUs < 0 {
			return errors.New("dispatch.slurm resource counts must not be negative")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
