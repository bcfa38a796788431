package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"sftpsync/internal/services"
)

const component = "transfer"

// Entry describes one item of a remote directory listing.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Client is an open transfer session.
type Client interface {
	List(ctx context.Context, remoteDir string) ([]Entry, error)
	Get(ctx context.Context, remotePath, localPath string) error
	Put(ctx context.Context, localPath, remotePath string) error
	Close() error
}

// NativeFS returns a billy filesystem addressing the host filesystem by
// absolute path.
func NativeFS() billy.Filesystem {
	return osfs.New("/")
}

// SFTPClient is a Client backed by an SFTP subsystem.
type SFTPClient struct {
	sftp  *sftp.Client
	conn  *ssh.Client
	local billy.Filesystem
}

// NewSFTPClient wraps an established SFTP client. local defaults to
// NativeFS when nil.
func NewSFTPClient(client *sftp.Client, local billy.Filesystem) *SFTPClient {
	if local == nil {
		local = NativeFS()
	}
	return &SFTPClient{sftp: client, local: local}
}

// List returns the entries of remoteDir sorted by name.
func (c *SFTPClient) List(ctx context.Context, remoteDir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := c.sftp.ReadDir(remoteDir)
	if err != nil {
		return nil, services.Wrap(services.ErrRemoteIO, component, "list", remoteDir, err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, entryFromInfo(info))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Get copies remotePath to localPath, replacing any existing local file. The
// parent of localPath must already exist. A partially written local file is
// removed when the copy fails.
func (c *SFTPClient) Get(ctx context.Context, remotePath, localPath string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkLocalDir(c.local, filepath.Dir(localPath)); err != nil {
		return services.Wrap(services.ErrFilesystem, component, "get", "destination "+filepath.Dir(localPath), err)
	}
	src, err := c.sftp.Open(remotePath)
	if err != nil {
		return services.Wrap(services.ErrRemoteIO, component, "get", "open "+remotePath, err)
	}
	defer src.Close()
	stop := context.AfterFunc(ctx, func() { _ = src.Close() })
	defer stop()

	dst, err := c.local.Create(localPath)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, component, "get", "create "+localPath, err)
	}
	defer func() {
		closeErr := dst.Close()
		if err == nil && closeErr != nil {
			err = services.Wrap(services.ErrFilesystem, component, "get", "close "+localPath, closeErr)
		}
		if err != nil {
			_ = c.local.Remove(localPath)
		}
	}()

	out := &trackedWriter{w: dst}
	if _, copyErr := io.Copy(out, src); copyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if out.err != nil {
			return services.Wrap(services.ErrFilesystem, component, "get", "write "+localPath, out.err)
		}
		return services.Wrap(services.ErrRemoteIO, component, "get", "copy "+remotePath, copyErr)
	}
	return nil
}

// trackedWriter remembers the first write failure so a copy error can be
// attributed to the local side.
type trackedWriter struct {
	w   io.Writer
	err error
}

func (t *trackedWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

// checkLocalDir reports an error unless dir exists and is a directory. The
// billy osfs creates missing parents on Create, so Get checks first.
func checkLocalDir(local billy.Filesystem, dir string) error {
	info, err := local.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Put copies localPath to remotePath, truncating any existing remote file.
func (c *SFTPClient) Put(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := c.local.Open(localPath)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, component, "put", "open "+localPath, err)
	}
	defer src.Close()

	dst, err := c.sftp.Create(remotePath)
	if err != nil {
		return services.Wrap(services.ErrRemoteIO, component, "put", "create "+remotePath, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = dst.Close() })
	defer stop()

	if _, copyErr := io.Copy(dst, src); copyErr != nil {
		_ = dst.Close()
		_ = c.sftp.Remove(remotePath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrRemoteIO, component, "put", "copy to "+remotePath, copyErr)
	}
	if closeErr := dst.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return services.Wrap(services.ErrRemoteIO, component, "put", "close "+remotePath, closeErr)
	}
	return nil
}

// Close ends the SFTP subsystem and the SSH connection beneath it.
func (c *SFTPClient) Close() error {
	var result *multierror.Error
	if c.sftp != nil {
		if err := c.sftp.Close(); err != nil && !errors.Is(err, io.EOF) {
			result = multierror.Append(result, err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func entryFromInfo(info os.FileInfo) Entry {
	return Entry{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
