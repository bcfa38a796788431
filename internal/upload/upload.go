package upload

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"

	"sftpsync/internal/logging"
	"sftpsync/internal/services"
	"sftpsync/internal/transfer"
)

// DefaultThreshold is the age past which a file is quarantined instead of
// uploaded.
const DefaultThreshold = 300 * time.Second

// Action is what happened to one file.
type Action string

const (
	ActionUploaded          Action = "uploaded"
	ActionQuarantinedAge    Action = "quarantined_age"
	ActionQuarantinedFailed Action = "quarantined_failed"
	ActionSkipped           Action = "skipped"
)

// Outcome is the result of triaging one file.
type Outcome struct {
	Name   string
	Age    time.Duration
	Action Action
	// Err is the transfer failure behind ActionQuarantinedFailed, or the
	// filesystem failure that stopped the pass.
	Err error
}

// Result summarizes an upload pass.
type Result struct {
	Outcomes []Outcome
	// Alert is true when at least one file aged out into quarantine.
	Alert bool
	// Err is set when the source directory could not be read or a local
	// filesystem operation stopped the pass.
	Err error
}

// Aged returns the names moved into quarantine for age, in triage order.
func (r Result) Aged() []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Action == ActionQuarantinedAge {
			names = append(names, o.Name)
		}
	}
	return names
}

// Count returns how many outcomes carry action.
func (r Result) Count(action Action) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// Options names the directories and threshold for one pass.
type Options struct {
	SourceDir     string
	RemoteDir     string
	QuarantineDir string
	Threshold     time.Duration
}

// Uploader runs the triage policy against a transfer client and the local
// filesystem.
type Uploader struct {
	Client transfer.Client
	Local  billy.Filesystem
	Now    func() time.Time
	Logger *slog.Logger
}

// Run triages every regular file of opts.SourceDir. The directory is listed
// and the clock sampled once, before the first file.
func (u *Uploader) Run(ctx context.Context, opts Options) Result {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(u.Logger, "upload"))
	local := u.Local
	if local == nil {
		local = transfer.NativeFS()
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	now := time.Now()
	if u.Now != nil {
		now = u.Now()
	}

	result := Result{}
	infos, err := local.ReadDir(opts.SourceDir)
	if err != nil {
		result.Err = services.Wrap(services.ErrFilesystem, "upload", "scan", opts.SourceDir, err)
		logging.ErrorWithContext(logger, "upload source directory unreadable", "upload_scan_failed",
			logging.String("source_dir", opts.SourceDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check local_upload_dir exists and is readable"),
		)
		return result
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	t := triage{
		client:    u.Client,
		local:     local,
		opts:      opts,
		threshold: threshold,
		now:       now,
		logger:    logger,
	}
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}

		outcome, stop := t.file(ctx, info.Name())
		if outcome.Action == ActionQuarantinedAge {
			result.Alert = true
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if stop != nil {
			result.Err = stop
			logging.ErrorWithContext(logger, "upload pass stopped", "upload_aborted",
				logging.String("name", outcome.Name),
				logging.Error(stop),
				logging.String(logging.FieldErrorHint, "check permissions on local_upload_dir and quarantine_dir"),
			)
			break
		}
	}

	logger.Info("upload pass complete",
		logging.Int("uploaded", result.Count(ActionUploaded)),
		logging.Int("quarantined_age", result.Count(ActionQuarantinedAge)),
		logging.Int("quarantined_failed", result.Count(ActionQuarantinedFailed)),
		logging.Bool("alert", result.Alert),
		logging.String(logging.FieldEventType, "upload_complete"),
	)
	return result
}

type triage struct {
	client    transfer.Client
	local     billy.Filesystem
	opts      Options
	threshold time.Duration
	now       time.Time
	logger    *slog.Logger
}

// file decides and acts on one file. A non-nil second return value stops
// the pass.
func (t triage) file(ctx context.Context, name string) (Outcome, error) {
	sourcePath := filepath.Join(t.opts.SourceDir, name)
	outcome := Outcome{Name: name}

	info, err := t.local.Stat(sourcePath)
	if errors.Is(err, fs.ErrNotExist) {
		outcome.Action = ActionSkipped
		t.logger.Debug("file vanished before triage", logging.String("name", name))
		return outcome, nil
	}
	if err != nil {
		outcome.Action = ActionSkipped
		outcome.Err = services.Wrap(services.ErrFilesystem, "upload", "stat", sourcePath, err)
		return outcome, outcome.Err
	}
	outcome.Age = t.now.Sub(info.ModTime())

	if outcome.Age > t.threshold {
		outcome.Action = ActionQuarantinedAge
		if err := t.quarantine(sourcePath, name); err != nil {
			outcome.Err = err
			return outcome, err
		}
		logging.WarnWithContext(t.logger, "file aged out into quarantine", "file_quarantined",
			logging.String("name", name),
			logging.Duration("age", outcome.Age.Round(time.Second)),
			logging.Duration("threshold", t.threshold),
			logging.String(logging.FieldErrorHint, "the export producer stopped or the server rejected earlier runs"),
			logging.String(logging.FieldImpact, "file not uploaded; alert raised"),
		)
		return outcome, nil
	}

	remotePath := path.Join(t.opts.RemoteDir, name)
	if err := t.client.Put(ctx, sourcePath, remotePath); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome.Action = ActionSkipped
			return outcome, ctxErr
		}
		outcome.Action = ActionQuarantinedFailed
		outcome.Err = err
		if qErr := t.quarantine(sourcePath, name); qErr != nil {
			return outcome, qErr
		}
		logging.WarnWithContext(t.logger, "upload failed; file quarantined", "file_quarantined",
			logging.String("name", name),
			logging.String("remote_path", remotePath),
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check remote_upload_dir exists and is writable"),
			logging.String(logging.FieldImpact, "file moved to quarantine; remaining files continue"),
		)
		return outcome, nil
	}

	outcome.Action = ActionUploaded
	if err := t.local.Remove(sourcePath); err != nil {
		outcome.Err = services.Wrap(services.ErrFilesystem, "upload", "remove uploaded file", sourcePath, err)
		return outcome, outcome.Err
	}
	t.logger.Info("file uploaded",
		logging.String("name", name),
		logging.String("remote_path", remotePath),
		logging.Duration("age", outcome.Age.Round(time.Second)),
		logging.String(logging.FieldEventType, "file_uploaded"),
	)
	return outcome, nil
}

// quarantine moves sourcePath into the quarantine directory, creating it
// when absent.
func (t triage) quarantine(sourcePath, name string) error {
	if err := t.local.MkdirAll(t.opts.QuarantineDir, 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "upload", "create quarantine", t.opts.QuarantineDir, err)
	}
	target := filepath.Join(t.opts.QuarantineDir, name)
	if err := t.local.Rename(sourcePath, target); err != nil {
		return services.Wrap(services.ErrFilesystem, "upload", "quarantine", sourcePath, err)
	}
	return nil
}
