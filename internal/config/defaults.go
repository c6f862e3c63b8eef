package config

const (
	defaultDatasetDir   = "~/.local/share/fcmbench/datasets"
	defaultWeightDir    = "~/.local/share/fcmbench/weights"
	defaultBitstreamDir = "~/.local/share/fcmbench/bitstreams"
	defaultLogDir       = "~/.local/share/fcmbench/logs"
	defaultDatasetTag   = "SFU_HW_Obj"
	defaultDevice       = "cuda"
	defaultCodecConfig  = "eval_cfp_codec"
	defaultSweepMode    = "qp"
	defaultBackend      = "immediate"
	defaultConcurrency  = 2
	defaultSlurmGPUs    = 1
	defaultSlurmCPUs    = 4
	defaultSlurmMemory  = "16G"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatasetDir:   defaultDatasetDir,
			WeightDir:    defaultWeightDir,
			BitstreamDir: defaultBitstreamDir,
			LogDir:       defaultLogDir,
		},
		Experiment: Experiment{
			DatasetTag:  defaultDatasetTag,
			Device:      defaultDevice,
			CodecConfig: defaultCodecConfig,
		},
		Sweep: Sweep{
			Mode: defaultSweepMode,
			QPs:  []int{8, 10, 12},
		},
		Dispatch: Dispatch{
			Backend:     defaultBackend,
			Concurrency: defaultConcurrency,
			Slurm: Slurm{
				GPUs:   defaultSlurmGPUs,
				CPUs:   defaultSlurmCPUs,
				Memory: defaultSlurmMemory,
			},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
