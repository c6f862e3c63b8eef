package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fcmbench/internal/aggregate"
	"fcmbench/internal/logging"
)

// newAggregateCommand merges per-job metric CSVs under the codec output root.
// The slurm backend resubmits the binary with this command as the final
// singleton job, passing all three flags; interactively the values fall back
// to the loaded configuration.
func newAggregateCommand(ctx *commandContext) *cobra.Command {
	var root, experiment, tag string

	cmd := &cobra.Command{
		Use:         "aggregate",
		Short:       "Merge per-job metric CSVs into a summary file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root = strings.TrimSpace(root)
			experiment = strings.TrimSpace(experiment)
			tag = strings.TrimSpace(tag)

			format, level := "console", "info"
			if root == "" || experiment == "" || tag == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				if root == "" {
					root = cfg.Paths.BitstreamDir
				}
				if experiment == "" {
					experiment = cfg.Experiment.Name
				}
				if tag == "" {
					tag = cfg.Experiment.DatasetTag
				}
				format, level = cfg.Logging.Format, cfg.Logging.Level
			}

			logger, err := logging.New(logging.Options{
				Level:  level,
				Format: format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			summary, err := aggregate.New(logger).Aggregate(root, experiment, tag)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s (%d rows, %d skipped)\n",
				summary.CSVPath, summary.Rows, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Bitstream output root containing the codec directory tree")
	cmd.Flags().StringVar(&experiment, "experiment", "", "Experiment name suffix of the codec directory")
	cmd.Flags().StringVar(&tag, "tag", "", "Dataset tag naming the artifact directory and summary file")
	return cmd
}
