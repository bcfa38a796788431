package syncrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sftpsync/internal/config"
	"sftpsync/internal/download"
	"sftpsync/internal/history"
	"sftpsync/internal/logging"
	"sftpsync/internal/notifications"
	"sftpsync/internal/preflight"
	"sftpsync/internal/quarantine"
	"sftpsync/internal/services"
	"sftpsync/internal/transfer"
	"sftpsync/internal/upload"
)

// ErrAlreadyRunning is returned when another run holds the state lock.
var ErrAlreadyRunning = errors.New("another sftpsync run is in progress")

// Dialer opens a transfer session.
type Dialer func(ctx context.Context, opts transfer.Options) (transfer.Client, error)

// DialSFTP is the production Dialer.
func DialSFTP(ctx context.Context, opts transfer.Options) (transfer.Client, error) {
	client, err := transfer.Dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Summary reports what a run did.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Download   download.Result
	Upload     upload.Result
	Monitor    quarantine.Result
}

// Runner executes sync passes for one configuration.
type Runner struct {
	Config   *config.Config
	Logger   *slog.Logger
	Notifier notifications.Service
	// History is optional; runs are not recorded when nil.
	History *history.Store
	Dial    Dialer
	Local   billy.Filesystem
	Now     func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run performs one pass. The returned error is non-nil only when the pass
// could not start: the lock was held or the session failed.
func (r *Runner) Run(ctx context.Context) (summary Summary, err error) {
	if r.Config == nil {
		return summary, fmt.Errorf("%w: runner requires a config", services.ErrConfiguration)
	}
	cfg := r.Config

	summary.RunID = uuid.NewString()
	summary.StartedAt = r.now()
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "syncrun"))

	if err := cfg.EnsureDirectories(); err != nil {
		return summary, fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return summary, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.LockPath())
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release run lock", logging.Error(unlockErr))
		}
	}()

	defer func() {
		summary.FinishedAt = r.now()
		r.record(ctx, logger, summary, err)
	}()

	logger.Info("sync run started",
		logging.String("host", cfg.Transfer.Hostname),
		logging.String(logging.FieldEventType, "run_started"),
	)
	for _, failed := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run sftpsync check for details"),
			logging.String(logging.FieldImpact, "the affected phase may fail"),
		)
	}

	client, err := r.dial(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to establish sftp session", "session_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check hostname, port, username, private key and known_hosts"),
		)
		return summary, err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logging.WarnWithContext(logger, "failed to close sftp session", "session_close_failed",
				logging.Error(closeErr),
				logging.String(logging.FieldImpact, "none; the run already finished"),
			)
		}
	}()

	local := r.Local
	if local == nil {
		local = transfer.NativeFS()
	}

	summary.Download = download.Run(services.WithPhase(ctx, "download"), client,
		cfg.Paths.RemoteDownloadDir, cfg.Paths.LocalDownloadDir, r.Logger)

	uploader := &upload.Uploader{Client: client, Local: local, Now: r.Now, Logger: r.Logger}
	summary.Upload = uploader.Run(services.WithPhase(ctx, "upload"), upload.Options{
		SourceDir:     cfg.Paths.LocalUploadDir,
		RemoteDir:     cfg.Paths.RemoteUploadDir,
		QuarantineDir: cfg.Paths.QuarantineDir,
		Threshold:     cfg.AgeThreshold(),
	})

	monitor := &quarantine.Monitor{Local: local, Notifier: r.notifier(), Logger: r.Logger}
	summary.Monitor = monitor.Check(services.WithPhase(ctx, "monitor"),
		cfg.Paths.QuarantineDir, cfg.AlertThreshold(), summary.Upload.Aged())

	logger.Info("sync run finished",
		logging.Int("downloaded", len(summary.Download.Downloaded)),
		logging.Int("uploaded", summary.Upload.Count(upload.ActionUploaded)),
		logging.Int("quarantined", summary.Upload.Count(upload.ActionQuarantinedAge)+summary.Upload.Count(upload.ActionQuarantinedFailed)),
		logging.Bool("notified", summary.Monitor.Sent),
		logging.String(logging.FieldEventType, "run_finished"),
	)
	return summary, nil
}

func (r *Runner) dial(ctx context.Context) (transfer.Client, error) {
	dial := r.Dial
	if dial == nil {
		dial = DialSFTP
	}
	opts := transfer.OptionsFromConfig(r.Config)
	opts.Local = r.Local
	return dial(ctx, opts)
}

func (r *Runner) notifier() notifications.Service {
	if r.Notifier != nil {
		return r.Notifier
	}
	return notifications.NewService(r.Config)
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, summary Summary, runErr error) {
	if r.History == nil {
		return
	}
	run := history.Run{
		RunID:             summary.RunID,
		Host:              r.Config.Transfer.Hostname,
		StartedAt:         summary.StartedAt,
		FinishedAt:        summary.FinishedAt,
		Downloaded:        len(summary.Download.Downloaded),
		DownloadFailed:    len(summary.Download.Failed),
		Uploaded:          summary.Upload.Count(upload.ActionUploaded),
		QuarantinedAge:    summary.Upload.Count(upload.ActionQuarantinedAge),
		QuarantinedFailed: summary.Upload.Count(upload.ActionQuarantinedFailed),
		AlertRaised:       summary.Upload.Alert,
		NotificationSent:  summary.Monitor.Sent,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	// The caller's context may already be cancelled; the record still lands.
	if err := r.History.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from sftpsync history"),
		)
	}
}
