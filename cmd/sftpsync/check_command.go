package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sftpsync/internal/notifications"
	"sftpsync/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipRemote bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories, credentials and server access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			failed := 0
			if err := cfg.Validate(); err != nil {
				writeSection(out, "Configuration", colorize)
				fmt.Fprintln(out, renderStatusLine("Configuration", statusError, err.Error(), colorize))
				failed++
			}

			local := preflight.RunAll(cfg)
			writeSection(out, "Local", colorize)
			failed += writeResults(out, local, colorize)

			if !skipRemote {
				remote := preflight.CheckRemote(cmd.Context(), cfg)
				writeSection(out, "Remote", colorize)
				failed += writeResults(out, remote, colorize)
			}

			writeSection(out, "Notifications", colorize)
			transports := notifications.Describe(cfg)
			if len(transports) == 0 {
				fmt.Fprintln(out, renderStatusLine("Alerts", statusWarn, "no transport configured; quarantine alerts are only logged", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Alerts", statusInfo, strings.Join(transports, ", "), colorize))
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipRemote, "skip-remote", false, "Only run the local checks")
	return cmd
}

func writeSection(out io.Writer, title string, colorize bool) {
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
}

func writeResults(out io.Writer, results []preflight.Result, colorize bool) int {
	failed := 0
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
			failed++
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return failed
}
