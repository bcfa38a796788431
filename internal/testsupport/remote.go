package testsupport

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"sftpsync/internal/services"
	"sftpsync/internal/transfer"
)

// DirClient is a transfer.Client whose "server" is a local directory.
// Remote paths are resolved beneath Root.
type DirClient struct {
	Root string
	// PutErrors fails Put for the given base names.
	PutErrors map[string]error
	// ListError fails every List call.
	ListError error

	mu     sync.Mutex
	puts   []string
	closed int
}

// NewDirClient returns a client rooted at root.
func NewDirClient(root string) *DirClient {
	return &DirClient{Root: root}
}

func (c *DirClient) resolve(remote string) string {
	return filepath.Join(c.Root, filepath.FromSlash(path.Clean("/"+remote)))
}

func (c *DirClient) List(_ context.Context, remoteDir string) ([]transfer.Entry, error) {
	if c.ListError != nil {
		return nil, c.ListError
	}
	dirEntries, err := os.ReadDir(c.resolve(remoteDir))
	if err != nil {
		return nil, services.Wrap(services.ErrRemoteIO, "transfer", "list", remoteDir, err)
	}
	entries := make([]transfer.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, transfer.Entry{
			Name:    de.Name(),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *DirClient) Get(_ context.Context, remotePath, localPath string) error {
	if err := copyFile(c.resolve(remotePath), localPath); err != nil {
		return services.Wrap(services.ErrRemoteIO, "transfer", "get", remotePath, err)
	}
	return nil
}

func (c *DirClient) Put(_ context.Context, localPath, remotePath string) error {
	c.mu.Lock()
	c.puts = append(c.puts, path.Base(remotePath))
	c.mu.Unlock()
	if err := c.PutErrors[path.Base(remotePath)]; err != nil {
		return services.Wrap(services.ErrRemoteIO, "transfer", "put", remotePath, err)
	}
	if err := copyFile(localPath, c.resolve(remotePath)); err != nil {
		return services.Wrap(services.ErrRemoteIO, "transfer", "put", remotePath, err)
	}
	return nil
}

func (c *DirClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

// Puts returns the base names passed to Put, in order.
func (c *DirClient) Puts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.puts...)
}

// Closed returns how many times Close was called.
func (c *DirClient) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return nil
}

// ErrInjected is a convenience failure for PutErrors.
var ErrInjected = errors.New("injected failure")
