// Package download pulls every file of a remote directory into a local one.
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"sftpsync/internal/logging"
	"sftpsync/internal/services"
	"sftpsync/internal/textutil"
	"sftpsync/internal/transfer"
)

// Result summarizes a download pass.
type Result struct {
	Downloaded []string
	Skipped    []string
	Failed     []FileError
	// Err is set when the local destination is unusable or the remote
	// directory could not be listed.
	Err error
}

// FileError pairs a remote entry with its failure.
type FileError struct {
	Name string
	Err  error
}

// Run fetches each entry of remoteDir into localDir under the same base
// name. localDir must already exist; a missing destination ends the pass
// before anything is listed. Failures are logged and recorded; nothing is
// returned as an error.
func Run(ctx context.Context, client transfer.Client, remoteDir, localDir string, logger *slog.Logger) Result {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "download"))
	result := Result{}

	if err := checkDestination(localDir); err != nil {
		result.Err = services.Wrap(services.ErrFilesystem, "download", "check destination", localDir, err)
		logging.ErrorWithContext(logger, "local download directory unusable", "download_dest_missing",
			logging.String("local_dir", localDir),
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, "create local_download_dir or fix its path in the config"),
			logging.String(logging.FieldImpact, "no files downloaded this session"),
		)
		return result
	}

	entries, err := client.List(ctx, remoteDir)
	if err != nil {
		result.Err = err
		logging.ErrorWithContext(logger, "remote directory listing failed", "download_list_failed",
			logging.String("remote_dir", remoteDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check remote_download_dir exists and is readable by the sftp user"),
		)
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			break
		}
		if entry.IsDir {
			result.Skipped = append(result.Skipped, entry.Name)
			logger.Debug("skipping remote directory",
				logging.String("name", entry.Name),
				logging.String(logging.FieldEventType, "download_skipped"),
			)
			continue
		}

		name, err := textutil.EntryName(entry.Name)
		if err != nil {
			result.Failed = append(result.Failed, FileError{Name: entry.Name, Err: err})
			logging.WarnWithContext(logger, "refusing unsafe remote file name", "download_unsafe_name",
				logging.String("name", entry.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file not downloaded"),
			)
			continue
		}

		remotePath := path.Join(remoteDir, entry.Name)
		localPath := filepath.Join(localDir, name)
		if err := client.Get(ctx, remotePath, localPath); err != nil {
			result.Failed = append(result.Failed, FileError{Name: name, Err: err})
			if errors.Is(err, context.Canceled) {
				result.Err = err
				break
			}
			logging.WarnWithContext(logger, "file download failed", "download_failed",
				logging.String("remote_path", remotePath),
				logging.String("local_path", localPath),
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.String(logging.FieldErrorHint, "check remote file permissions and local disk space"),
				logging.String(logging.FieldImpact, "file not downloaded; remaining files continue"),
			)
			continue
		}

		result.Downloaded = append(result.Downloaded, name)
		logger.Info("file downloaded",
			logging.String("name", name),
			logging.Int64("size", entry.Size),
			logging.String(logging.FieldEventType, "file_downloaded"),
		)
	}

	logger.Info("download pass complete",
		logging.Int("downloaded", len(result.Downloaded)),
		logging.Int("failed", len(result.Failed)),
		logging.Int("skipped", len(result.Skipped)),
		logging.String(logging.FieldEventType, "download_complete"),
	)
	return result
}

func checkDestination(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
