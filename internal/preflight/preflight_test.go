package preflight

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"sftpsync/internal/config"
	"sftpsync/internal/transfer"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_Failures(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for name, path := range map[string]string{
		"missing":  filepath.Join(t.TempDir(), "nope"),
		"not dir":  file,
		"no value": "",
	} {
		t.Run(name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", path)
			if result.Passed || result.Detail == "" {
				t.Fatalf("expected failure with detail, got %+v", result)
			}
		})
	}
}

func TestCheckQuarantineDir(t *testing.T) {
	existing := t.TempDir()
	if result := CheckQuarantineDir(existing); !result.Passed {
		t.Fatalf("expected existing dir to pass: %s", result.Detail)
	}

	pending := filepath.Join(t.TempDir(), "error", "nested")
	result := CheckQuarantineDir(pending)
	if !result.Passed || !strings.Contains(result.Detail, "created on demand") {
		t.Fatalf("expected creatable dir to pass, got %+v", result)
	}
	if _, err := os.Stat(pending); !os.IsNotExist(err) {
		t.Fatal("check must not create the directory")
	}
}

func writeKey(t *testing.T, passphrase string) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	}
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func TestCheckPrivateKey(t *testing.T) {
	plain := writeKey(t, "")
	if result := CheckPrivateKey(plain, ""); !result.Passed || !strings.Contains(result.Detail, "ssh-ed25519") {
		t.Fatalf("expected plain key to pass, got %+v", result)
	}

	encrypted := writeKey(t, "s3cret")
	if result := CheckPrivateKey(encrypted, "s3cret"); !result.Passed {
		t.Fatalf("expected encrypted key with passphrase to pass, got %+v", result)
	}
	result := CheckPrivateKey(encrypted, "")
	if result.Passed || !strings.Contains(result.Detail, "PRIVATE_KEY_PASSPHRASE") {
		t.Fatalf("expected passphrase hint, got %+v", result)
	}

	if result := CheckPrivateKey(filepath.Join(t.TempDir(), "absent"), ""); result.Passed {
		t.Fatal("expected missing key to fail")
	}
}

func TestCheckKnownHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if result := CheckKnownHosts(path); !result.Passed {
		t.Fatalf("expected empty known_hosts to parse: %s", result.Detail)
	}
	if result := CheckKnownHosts(filepath.Join(t.TempDir(), "absent")); result.Passed {
		t.Fatal("expected missing known_hosts to fail")
	}
}

func TestRunAllSkipsKnownHostsWhenInsecure(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LocalDownloadDir = t.TempDir()
	cfg.Paths.LocalUploadDir = t.TempDir()
	cfg.Paths.QuarantineDir = filepath.Join(t.TempDir(), "error")
	cfg.Transfer.PrivateKey = writeKey(t, "")
	cfg.Transfer.InsecureIgnoreHostKey = true

	results := RunAll(&cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}

	cfg.Transfer.InsecureIgnoreHostKey = false
	cfg.Transfer.KnownHostsFile = filepath.Join(t.TempDir(), "absent")
	results = RunAll(&cfg)
	if len(results) != 5 || len(Failed(results)) != 1 {
		t.Fatalf("expected known hosts failure, got %+v", results)
	}
}

type listClient struct {
	err error
}

func (c listClient) List(context.Context, string) ([]transfer.Entry, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []transfer.Entry{{Name: "a"}, {Name: "b"}}, nil
}

func (listClient) Get(context.Context, string, string) error { return nil }
func (listClient) Put(context.Context, string, string) error { return nil }
func (listClient) Close() error                              { return nil }

func TestCheckRemoteDir(t *testing.T) {
	ok := checkRemoteDir(context.Background(), listClient{}, "Remote", "/out")
	if !ok.Passed || !strings.Contains(ok.Detail, "2 entries") {
		t.Fatalf("unexpected result %+v", ok)
	}
	failed := checkRemoteDir(context.Background(), listClient{err: errors.New("no such file")}, "Remote", "/out")
	if failed.Passed {
		t.Fatal("expected listing failure")
	}
}

func TestCheckRemoteUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Transfer.Hostname = "127.0.0.1"
	cfg.Transfer.Port = 1
	cfg.Transfer.Username = "export"
	cfg.Transfer.PrivateKey = writeKey(t, "")
	cfg.Transfer.InsecureIgnoreHostKey = true
	cfg.Transfer.ConnectTimeout = 2

	results := CheckRemote(context.Background(), &cfg)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected a single failed connection result, got %+v", results)
	}
}
