// Package quarantine inspects the quarantine directory after an upload pass
// and raises the operator alert.
package quarantine

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"

	"sftpsync/internal/logging"
	"sftpsync/internal/notifications"
	"sftpsync/internal/services"
	"sftpsync/internal/transfer"
)

// Entry is one quarantined file.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns the regular files in dir sorted by name. A missing directory
// yields an empty list.
func List(local billy.Filesystem, dir string) ([]Entry, error) {
	if local == nil {
		local = transfer.NativeFS()
	}
	infos, err := local.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrFilesystem, "quarantine", "list", dir, err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, Entry{
			Name:    info.Name(),
			Path:    filepath.Join(dir, info.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Result reports what a check saw and did.
type Result struct {
	Files []Entry
	// Notified names the file the alert was about, if one was attempted.
	Notified string
	// Sent is true when the notifier accepted the alert.
	Sent bool
	// AlertCleared is true when an alert flag was consumed by this check.
	AlertCleared bool
	// Err carries a listing or delivery failure. It is informational only.
	Err error
}

// Monitor sends at most one notification per flagged run.
type Monitor struct {
	Local    billy.Filesystem
	Notifier notifications.Service
	Logger   *slog.Logger
}

// Check lists dir and, when aged is non-empty and the directory holds at
// least one file, sends a single notification. aged lists the files this
// run moved into quarantine for age; the alert names the first of them still
// present, else the first file by name. threshold only phrases the message.
// Files are never moved or removed.
func (m *Monitor) Check(ctx context.Context, dir string, threshold time.Duration, aged []string) Result {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.Logger, "quarantine"))
	result := Result{}

	files, err := List(m.Local, dir)
	if err != nil {
		result.Err = err
		logging.ErrorWithContext(logger, "quarantine directory unreadable", "quarantine_scan_failed",
			logging.String("quarantine_dir", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check quarantine_dir permissions"),
		)
		return result
	}
	result.Files = files

	if len(aged) == 0 {
		logger.Debug("no alert raised this run",
			logging.Int("quarantined", len(files)),
			logging.String(logging.FieldEventType, "quarantine_checked"),
		)
		return result
	}
	if len(files) == 0 {
		// The aged files were moved out of quarantine before the check ran.
		logging.WarnWithContext(logger, "alert raised but quarantine is empty", "quarantine_empty",
			logging.String("quarantine_dir", dir),
			logging.String(logging.FieldImpact, "no notification sent"),
		)
		return result
	}

	first := pick(files, aged)
	result.Notified = first.Name
	result.AlertCleared = true

	notifier := m.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	err = notifier.NotifyQuarantined(ctx, notifications.Alert{
		FileName:  first.Name,
		Others:    len(files) - 1,
		Dir:       dir,
		Threshold: threshold,
	})
	if err != nil {
		result.Err = err
		logging.WarnWithContext(logger, "quarantine notification failed", "notification_failed",
			logging.String("name", first.Name),
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check mail credentials and SMTP reachability (sftpsync test-notify)"),
			logging.String(logging.FieldImpact, "operator not alerted; files remain in quarantine"),
		)
		return result
	}

	result.Sent = true
	logger.Info("quarantine notification sent",
		logging.String("name", first.Name),
		logging.Int("quarantined", len(files)),
		logging.String(logging.FieldEventType, "notification_sent"),
	)
	return result
}

func pick(files []Entry, aged []string) Entry {
	for _, name := range aged {
		for _, f := range files {
			if f.Name == name {
				return f
			}
		}
	}
	return files[0]
}
