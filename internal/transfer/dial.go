package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"sftpsync/internal/config"
	"sftpsync/internal/services"
)

const defaultDialTimeout = 30 * time.Second

// Options describes how to reach and authenticate against the server.
type Options struct {
	Host                  string
	Port                  int
	User                  string
	PrivateKeyPath        string
	Passphrase            string
	KnownHostsFile        string
	InsecureIgnoreHostKey bool
	Timeout               time.Duration
	Local                 billy.Filesystem
}

// OptionsFromConfig maps the transfer section of cfg onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		Host:                  cfg.Transfer.Hostname,
		Port:                  cfg.Transfer.Port,
		User:                  cfg.Transfer.Username,
		PrivateKeyPath:        cfg.Transfer.PrivateKey,
		Passphrase:            cfg.Transfer.PrivateKeyPassphrase,
		KnownHostsFile:        cfg.Transfer.KnownHostsFile,
		InsecureIgnoreHostKey: cfg.Transfer.InsecureIgnoreHostKey,
		Timeout:               cfg.ConnectTimeout(),
	}
}

// Address returns host:port for the configured server.
func (o Options) Address() string {
	port := o.Port
	if port <= 0 {
		port = 22
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

// Dial connects to the server, authenticates with the private key and opens
// the SFTP subsystem. Failures are tagged ErrAuth or ErrConnection.
func Dial(ctx context.Context, opts Options) (*SFTPClient, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, services.Wrap(services.ErrConnection, component, "dial", "host is empty", nil)
	}

	signer, err := loadSigner(opts.PrivateKeyPath, opts.Passphrase)
	if err != nil {
		return nil, err
	}
	hostKeyCallback, err := hostKeyCallback(opts)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	clientConfig := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	addr := opts.Address()
	dialer := net.Dialer{Timeout: timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, services.Wrap(services.ErrConnection, component, "dial", addr, err)
	}

	// Bound the handshake; ssh.ClientConfig.Timeout only covers the TCP dial.
	_ = netConn.SetDeadline(time.Now().Add(timeout))
	stop := context.AfterFunc(ctx, func() { _ = netConn.Close() })
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientConfig)
	stop()
	if err != nil {
		_ = netConn.Close()
		return nil, classifyHandshakeError(addr, err)
	}
	_ = netConn.SetDeadline(time.Time{})

	sshClient := ssh.NewClient(sshConn, chans, reqs)
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, services.Wrap(services.ErrConnection, component, "open sftp subsystem", addr, err)
	}

	client := NewSFTPClient(sftpClient, opts.Local)
	client.conn = sshClient
	return client, nil
}

func loadSigner(path, passphrase string) (ssh.Signer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrAuth, component, "load key", "private key path is empty", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrAuth, component, "load key", path, err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(data)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, services.Wrap(services.ErrAuth, component, "load key", path+" is encrypted; set PRIVATE_KEY_PASSPHRASE", err)
		}
		return nil, services.Wrap(services.ErrAuth, component, "parse key", path, err)
	}
	return signer, nil
}

func hostKeyCallback(opts Options) (ssh.HostKeyCallback, error) {
	if opts.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	file := strings.TrimSpace(opts.KnownHostsFile)
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, services.Wrap(services.ErrConnection, component, "known hosts", "resolve home directory", err)
		}
		file = filepath.Join(home, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(file)
	if err != nil {
		return nil, services.Wrap(services.ErrConnection, component, "known hosts", file, err)
	}
	return callback, nil
}

func classifyHandshakeError(addr string, err error) error {
	var keyErr *knownhosts.KeyError
	switch {
	case errors.As(err, &keyErr) && len(keyErr.Want) == 0:
		return services.Wrap(services.ErrConnection, component, "handshake", fmt.Sprintf("host key for %s is not in known_hosts", addr), err)
	case errors.As(err, &keyErr):
		return services.Wrap(services.ErrConnection, component, "handshake", fmt.Sprintf("host key for %s does not match known_hosts", addr), err)
	case strings.Contains(err.Error(), "unable to authenticate"):
		return services.Wrap(services.ErrAuth, component, "handshake", addr, err)
	default:
		return services.Wrap(services.ErrConnection, component, "handshake", addr, err)
	}
}
