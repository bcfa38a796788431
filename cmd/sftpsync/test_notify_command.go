package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sftpsync/internal/notifications"
)

// newNotifier is swapped by tests.
var newNotifier = notifications.NewService

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through every configured transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			transports := notifications.Describe(cfg)
			if len(transports) == 0 {
				fmt.Fprintln(out, "Notification not sent: no transport configured")
				return nil
			}
			if err := newNotifier(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("test notification: %w", err)
			}
			fmt.Fprintf(out, "Test notification sent via %s\n", strings.Join(transports, ", "))
			return nil
		},
	}
}
