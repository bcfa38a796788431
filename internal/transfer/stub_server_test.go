package transfer

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// stubServer is an SSH server on 127.0.0.1 that accepts one authorized key
// and serves the sftp subsystem over the host filesystem.
type stubServer struct {
	host      string
	port      int
	hostKey   ssh.Signer
	clientKey string
	listener  net.Listener
	wg        sync.WaitGroup
}

func generateSigner(t *testing.T) (ssh.Signer, []byte) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer, pem.EncodeToMemory(block)
}

func newStubServer(t *testing.T) *stubServer {
	t.Helper()
	hostKey, _ := generateSigner(t)
	authorized, clientPEM := generateSigner(t)

	dir := t.TempDir()
	clientKey := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(clientKey, clientPEM, 0o600); err != nil {
		t.Fatalf("write client key: %v", err)
	}

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if conn.User() == "export" && bytes.Equal(key.Marshal(), authorized.PublicKey().Marshal()) {
				return nil, nil
			}
			return nil, fmt.Errorf("unknown public key for %q", conn.User())
		},
	}
	cfg.AddHostKey(hostKey)

	listener, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	host, portText, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portText)

	s := &stubServer{host: host, port: port, hostKey: hostKey, clientKey: clientKey, listener: listener}
	s.wg.Add(1)
	go s.acceptLoop(cfg)
	t.Cleanup(func() {
		_ = listener.Close()
		s.wg.Wait()
	})
	return s
}

func (s *stubServer) acceptLoop(cfg *ssh.ServerConfig) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			return
		}
		go s.serveConn(conn, cfg)
	}
}

func (s *stubServer) serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go serveSession(channel, requests)
	}
}

func serveSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	for req := range requests {
		var payload struct{ Name string }
		ok := req.Type == "subsystem" && ssh.Unmarshal(req.Payload, &payload) == nil && payload.Name == "sftp"
		_ = req.Reply(ok, nil)
		if !ok {
			continue
		}
		go func() {
			defer channel.Close()
			server, err := sftp.NewServer(channel)
			if err != nil {
				return
			}
			_ = server.Serve()
			_ = server.Close()
		}()
	}
}

// knownHostsFile writes a known_hosts file trusting key for this server.
func (s *stubServer) knownHostsFile(t *testing.T, key ssh.PublicKey) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "known_hosts")
	content := ""
	if key != nil {
		addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
		content = knownhosts.Line([]string{knownhosts.Normalize(addr)}, key) + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write known_hosts: %v", err)
	}
	return path
}

func (s *stubServer) options(t *testing.T) Options {
	return Options{
		Host:           s.host,
		Port:           s.port,
		User:           "export",
		PrivateKeyPath: s.clientKey,
		KnownHostsFile: s.knownHostsFile(t, s.hostKey.PublicKey()),
	}
}
