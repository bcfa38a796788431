// Package transfer owns the SFTP session used by a sync run.
//
// Client is the narrow surface the download, upload and quarantine phases
// depend on: list a remote directory, copy a remote file down, copy a local
// file up, and close. SFTPClient implements it over golang.org/x/crypto/ssh
// and github.com/pkg/sftp; the local side goes through a go-billy filesystem
// so tests and alternative roots can substitute their own.
//
// Errors are tagged with the markers from internal/services: ErrAuth and
// ErrConnection for failures to establish the session (fatal to a run),
// ErrRemoteIO and ErrFilesystem for per-file failures.
package transfer
