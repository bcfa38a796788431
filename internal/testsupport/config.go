package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sftpsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a valid config seeded with unique temp directories per
// test. The local download and upload directories and the remote root (see
// RemoteRoot) exist; the quarantine directory does not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Transfer.Hostname = "sftp.test"
	cfgVal.Transfer.Username = "export"
	cfgVal.Transfer.PrivateKey = filepath.Join(base, "id_ed25519")
	cfgVal.Transfer.InsecureIgnoreHostKey = true
	cfgVal.Paths.RemoteDownloadDir = "/outbound"
	cfgVal.Paths.RemoteUploadDir = "/inbound"
	cfgVal.Paths.LocalDownloadDir = filepath.Join(base, "inbox")
	cfgVal.Paths.LocalUploadDir = filepath.Join(base, "export")
	cfgVal.Paths.QuarantineDir = filepath.Join(base, "error")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Mail.Sender = "alerts@example.com"
	cfgVal.Mail.Recipient = "ops@example.com"
	cfgVal.Mail.Secret = "secret"

	for _, dir := range []string{
		cfgVal.Paths.LocalDownloadDir,
		cfgVal.Paths.LocalUploadDir,
		filepath.Join(base, "remote", "outbound"),
		filepath.Join(base, "remote", "inbound"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAgeThreshold overrides the upload triage threshold in seconds.
func WithAgeThreshold(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Triage.AgeThresholdSeconds = seconds
	}
}

// WithoutMail disables the mail transport.
func WithoutMail() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.Mail = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// RemoteRoot returns the directory that stands in for the server's
// filesystem root.
func RemoteRoot(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "remote")
}
