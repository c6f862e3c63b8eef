package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fcmbench/internal/driver"
	"fcmbench/internal/logging"
	"fcmbench/internal/runlog"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var backendFlag string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the configured sweep and aggregate results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if backend := strings.ToLower(strings.TrimSpace(backendFlag)); backend != "" {
				cfg.Dispatch.Backend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			result, runErr := driver.Run(cmd.Context(), cfg, logger, driver.Options{
				SkipPreflight: skipPreflight,
			})
			if result != nil {
				renderRunResult(cmd, cfg.Dispatch.Backend, result)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&backendFlag, "backend", "", "Override the dispatch backend (immediate, pool, slurm)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before submitting jobs")
	return cmd
}

func renderRunResult(cmd *cobra.Command, backend string, result *driver.Result) {
	out := cmd.OutOrStdout()
	rounded := shouldColorize(out)

	if len(result.Jobs) > 0 {
		rows := make([][]string, 0, len(result.Jobs))
		for _, job := range result.Jobs {
			rows = append(rows, []string{
				job.Sequence,
				job.QP,
				string(job.Status),
				exitCodeLabel(job),
				job.Handle,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Sequence", "QP", "Status", "Exit", "Job ID"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			rounded,
		))
	}

	fmt.Fprintf(out, "Run %s on %s backend: %d submitted, %d failed, %d skipped\n",
		result.RunID, backendLabel(backend), result.Submitted, result.Failed, result.Skipped)

	switch {
	case result.Delegated:
		fmt.Fprintln(out, "Aggregation queued on the cluster; check scheduler output for the summary file.")
	case result.Summary != nil:
		fmt.Fprintf(out, "Summary written to %s (%d rows, %d skipped)\n",
			result.Summary.CSVPath, result.Summary.Rows, result.Summary.Skipped)
	}
}

func exitCodeLabel(job *runlog.Job) string {
	if job.Status == runlog.StatusSubmitted {
		return "-"
	}
	return strconv.Itoa(job.ExitCode)
}
