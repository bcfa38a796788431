package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sftpsync/internal/config"
	"sftpsync/internal/history"
	"sftpsync/internal/logging"
	"sftpsync/internal/syncrun"
	"sftpsync/internal/upload"
)

// dialSession is swapped by tests.
var dialSession syncrun.Dialer = syncrun.DialSFTP

func newRootCommand() *cobra.Command {
	var configFlag string
	var envFileFlag string
	var hostname string
	var port int
	var username string
	var privateKey string

	ctx := newCommandContext(&configFlag, &envFileFlag)

	rootCmd := &cobra.Command{
		Use:           "sftpsync",
		Short:         "Exchange files with an SFTP server and quarantine stale exports",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, ctx)
		},
	}

	ctx.addOverride(func(cfg *config.Config) {
		flags := rootCmd.Flags()
		if flags.Changed("hostname") {
			cfg.Transfer.Hostname = strings.TrimSpace(hostname)
		}
		if flags.Changed("port") {
			cfg.Transfer.Port = port
		}
		if flags.Changed("username") {
			cfg.Transfer.Username = strings.TrimSpace(username)
		}
		if flags.Changed("private-key") {
			cfg.Transfer.PrivateKey = strings.TrimSpace(privateKey)
		}
	})

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", defaultEnvFile, "Environment file loaded before the configuration")
	rootCmd.Flags().StringVar(&hostname, "hostname", "", "SFTP server hostname")
	rootCmd.Flags().IntVar(&port, "port", 22, "SFTP server port")
	rootCmd.Flags().StringVar(&username, "username", "", "SFTP username")
	rootCmd.Flags().StringVar(&privateKey, "private-key", "", "Path to the private key used for authentication")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newQuarantineCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}

func runSync(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := ctx.logger()
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.PruneLogs(logger, cfg)

	runner := &syncrun.Runner{
		Config: cfg,
		Logger: logger,
		Dial:   dialSession,
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
		)
	} else {
		defer store.Close()
		runner.History = store
	}

	summary, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: downloaded %d, uploaded %d, quarantined %d (age %d, failed %d), alert sent: %s\n",
		summary.RunID,
		len(summary.Download.Downloaded),
		summary.Upload.Count(upload.ActionUploaded),
		summary.Upload.Count(upload.ActionQuarantinedAge)+summary.Upload.Count(upload.ActionQuarantinedFailed),
		summary.Upload.Count(upload.ActionQuarantinedAge),
		summary.Upload.Count(upload.ActionQuarantinedFailed),
		yesNo(summary.Monitor.Sent),
	)
	return nil
}
