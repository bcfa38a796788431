package preflight

import (
	"context"
	"fmt"
	"time"

	"sftpsync/internal/config"
	"sftpsync/internal/transfer"
)

// CheckRemote opens a session with the configured credentials and lists
// both remote directories. The first result is the connection itself; the
// directory results are only present when it succeeded.
func CheckRemote(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	const name = "SFTP server"

	opts := transfer.OptionsFromConfig(cfg)
	checkCtx, cancel := context.WithTimeout(ctx, opts.Timeout+5*time.Second)
	defer cancel()

	client, err := transfer.Dial(checkCtx, opts)
	if err != nil {
		return []Result{{Name: name, Detail: fmt.Sprintf("%s (error: %v)", opts.Address(), err)}}
	}
	defer client.Close()

	results := []Result{{Name: name, Passed: true, Detail: fmt.Sprintf("%s (authenticated as %s)", opts.Address(), opts.User)}}
	results = append(results,
		checkRemoteDir(checkCtx, client, "Remote download directory", cfg.Paths.RemoteDownloadDir),
		checkRemoteDir(checkCtx, client, "Remote upload directory", cfg.Paths.RemoteUploadDir),
	)
	return results
}

func checkRemoteDir(ctx context.Context, client transfer.Client, name, dir string) Result {
	if dir == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	entries, err := client.List(ctx, dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", dir, len(entries))}
}
