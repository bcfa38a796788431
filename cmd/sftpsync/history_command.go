package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sftpsync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortRunID(run.RunID),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Duration().Round(10 * time.Millisecond).String(),
					strconv.Itoa(run.Downloaded),
					strconv.Itoa(run.Uploaded),
					strconv.Itoa(run.QuarantinedAge + run.QuarantinedFailed),
					yesNo(run.NotificationSent),
					runStatus(run),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Duration", "Down", "Up", "Quarantined", "Alerted", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runStatus(run history.Run) string {
	switch {
	case run.Error != "":
		return "failed: " + run.Error
	case run.DownloadFailed > 0:
		return fmt.Sprintf("ok (%d download failures)", run.DownloadFailed)
	default:
		return "ok"
	}
}
