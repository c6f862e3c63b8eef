package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"fcmbench/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the job ledger for the latest (or a given) run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := runlog.Open(filepath.Join(cfg.Paths.LogDir, "runs.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID == "" {
				runID, err = store.LatestRunID(cmd.Context())
				if err != nil {
					return err
				}
				if runID == "" {
					fmt.Fprintln(out, "No recorded runs.")
					return nil
				}
			}

			jobs, err := store.JobsForRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			stats, err := store.StatsForRun(cmd.Context(), runID)
			if err != nil {
				return err
			}

			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(fmt.Sprintf("Run %s", runID), colorize) {
				fmt.Fprintln(out, line)
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					fmt.Sprintf("%d", job.ID),
					job.Sequence,
					job.QP,
					string(job.Status),
					exitCodeLabel(job),
					job.Handle,
					job.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Sequence", "QP", "Status", "Exit", "Job ID", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
				colorize,
			))

			fmt.Fprintln(out, renderStatusLine("Completed", statusKindForCount(stats.Completed, statusOK), fmt.Sprintf("%d of %d", stats.Completed, stats.Total), colorize))
			fmt.Fprintln(out, renderStatusLine("Failed", statusKindForCount(stats.Failed, statusError), fmt.Sprintf("%d of %d", stats.Failed, stats.Total), colorize))
			if stats.Submitted > 0 {
				fmt.Fprintln(out, renderStatusLine("Pending", statusWarn, fmt.Sprintf("%d awaiting scheduler", stats.Submitted), colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run identifier (defaults to the most recent run)")
	return cmd
}

func statusKindForCount(count int, nonZero statusKind) statusKind {
	if count == 0 {
		return statusInfo
	}
	return nonZero
}
