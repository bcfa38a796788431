package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sftpsync/internal/quarantine"
	"sftpsync/internal/transfer"
)

func newQuarantineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "quarantine",
		Aliases: []string{"q"},
		Short:   "List files held in the quarantine directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateQuarantine(); err != nil {
				return err
			}

			entries, err := quarantine.List(transfer.NativeFS(), cfg.Paths.QuarantineDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Quarantine is empty (%s)\n", cfg.Paths.QuarantineDir)
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Name,
					humanize.IBytes(uint64(max(entry.Size, 0))),
					entry.ModTime.Local().Format("2006-01-02 15:04:05"),
					humanize.RelTime(entry.ModTime, now, "ago", "from now"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Size", "Modified", "Age"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d file(s) in %s\n", len(entries), cfg.Paths.QuarantineDir)
			return nil
		},
	}
}
