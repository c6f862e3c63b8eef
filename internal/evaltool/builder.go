package evaltool

import (
	"path/filepath"
	"strings"

	"fcmbench/internal/config"
	"fcmbench/internal/sweep"
)

// cpuISAEnv is the environment variable the evaluation tool reads to pin its
// CPU instruction-set selection. Forwarded opaquely.
const cpuISAEnv = "DNNL_MAX_CPU_ISA"

// Builder derives job descriptors from the configuration and a sweep
// combination.
type Builder struct {
	cfg       *config.Config
	codecRoot string
}

// NewBuilder constructs a Builder for one run.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg: cfg,
		codecRoot: sweep.CodecRoot(
			cfg.Paths.BitstreamDir,
			cfg.Experiment.Name,
			cfg.Experiment.DatasetTag,
		),
	}
}

// CodecRoot returns the artifact root all jobs of this run write under.
func (b *Builder) CodecRoot() string {
	return b.codecRoot
}

// Job returns the descriptor for one combination: a wrapper-script
// invocation when experiment.script is configured, otherwise a direct
// evaluation tool invocation.
func (b *Builder) Job(c sweep.Combination) sweep.Job {
	if b.cfg.Experiment.Script != "" {
		return b.scriptJob(c)
	}
	return b.evalJob(c)
}

// scriptJob builds a wrapper-script job. The positional argument order is an
// external contract:
//
//	input_dir output_dir experiment_name device qp sequence_name codec_params
func (b *Builder) scriptJob(c sweep.Combination) sweep.Job {
	outputDir := sweep.OutputDir(b.codecRoot, c)
	return sweep.Job{
		ScriptPath: b.cfg.Experiment.Script,
		Args: []string{
			b.cfg.Paths.DatasetDir,
			outputDir,
			b.cfg.Experiment.Name,
			b.cfg.Experiment.Device,
			c.QP,
			c.Sequence,
			b.cfg.Experiment.CodecParams,
		},
		Sequence:  c.Sequence,
		QP:        c.QP,
		OutputDir: outputDir,
		Env:       b.env(),
	}
}

// evalJob builds a direct evaluation tool invocation with hydra-style
// overrides.
func (b *Builder) evalJob(c sweep.Combination) sweep.Job {
	outputDir := sweep.OutputDir(b.codecRoot, c)
	args := []string{
		"--config-name=" + b.cfg.Experiment.CodecConfig,
		"++pipeline.type=video",
		"++paths._run_root=" + b.cfg.Paths.BitstreamDir,
		"++codec.experiment=" + b.cfg.Experiment.Name,
		"++codec.encoder_config.qp=" + c.QP,
		"++codec.output_dir=" + outputDir,
		"++vision_model.weight_dir=" + b.cfg.Paths.WeightDir,
		"++dataset.type=" + b.cfg.Experiment.DatasetTag,
		"++dataset.config.root=" + filepath.Join(b.cfg.Paths.DatasetDir, c.Sequence),
		"++dataset.config.sequence=" + c.Sequence,
		"++misc.device=" + b.cfg.Experiment.Device,
	}
	if c.Bitstream != "" {
		args = append(args,
			"++codec.decode_only=True",
			"++codec.bitstream_path="+c.Bitstream,
		)
	}
	args = append(args, splitParams(b.cfg.Experiment.CodecParams)...)

	return sweep.Job{
		ScriptPath: b.cfg.EvalBinary(),
		Args:       args,
		Sequence:   c.Sequence,
		QP:         c.QP,
		OutputDir:  outputDir,
		Env:        b.env(),
	}
}

// AggregateJob returns the descriptor that re-invokes this binary's
// aggregate command, used when the batch queue runs aggregation as a
// singleton job.
func (b *Builder) AggregateJob(selfPath string) sweep.Job {
	return sweep.Job{
		ScriptPath: selfPath,
		Args: []string{
			"aggregate",
			"--root", b.cfg.Paths.BitstreamDir,
			"--experiment", b.cfg.Experiment.Name,
			"--tag", b.cfg.Experiment.DatasetTag,
		},
		OutputDir: b.codecRoot,
		Env:       b.env(),
	}
}

func (b *Builder) env() []string {
	if b.cfg.Experiment.CPUISA == "" {
		return nil
	}
	return []string{cpuISAEnv + "=" + b.cfg.Experiment.CPUISA}
}

// splitParams breaks the free-form codec parameter string into individual
// flags. Content is forwarded verbatim; only whitespace splits.
func splitParams(params string) []string {
	if strings.TrimSpace(params) == "" {
		return nil
	}
	return strings.Fields(params)
}
