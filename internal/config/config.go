package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Transfer contains the SFTP session settings.
type Transfer struct {
	Hostname              string `toml:"hostname"`
	Port                  int    `toml:"port"`
	Username              string `toml:"username"`
	PrivateKey            string `toml:"private_key"`
	PrivateKeyPassphrase  string `toml:"private_key_passphrase"`
	KnownHostsFile        string `toml:"known_hosts_file"`
	InsecureIgnoreHostKey bool   `toml:"insecure_ignore_host_key"`
	ConnectTimeout        int    `toml:"connect_timeout"`
}

// Paths contains the local and remote directories a run touches.
type Paths struct {
	RemoteDownloadDir string `toml:"remote_download_dir"`
	LocalDownloadDir  string `toml:"local_download_dir"`
	LocalUploadDir    string `toml:"local_upload_dir"`
	RemoteUploadDir   string `toml:"remote_upload_dir"`
	QuarantineDir     string `toml:"quarantine_dir"`
	StateDir          string `toml:"state_dir"`
}

// Triage contains the age thresholds applied during upload and monitoring.
type Triage struct {
	AgeThresholdSeconds   int `toml:"age_threshold_seconds"`
	AlertThresholdSeconds int `toml:"alert_threshold_seconds"`
}

// Mail contains SMTP settings for quarantine alerts.
type Mail struct {
	Sender    string `toml:"sender"`
	Recipient string `toml:"recipient"`
	Secret    string `toml:"secret"`
	SMTPHost  string `toml:"smtp_host"`
	SMTPPort  int    `toml:"smtp_port"`
}

// Notifications selects the alert transports.
type Notifications struct {
	Mail           bool   `toml:"mail"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`

	// RetentionDays prunes daily log files older than this; 0 keeps them all.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for a sync run.
type Config struct {
	Transfer      Transfer      `toml:"transfer"`
	Paths         Paths         `toml:"paths"`
	Triage        Triage        `toml:"triage"`
	Mail          Mail          `toml:"mail"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// LoadEnvFile seeds the process environment from a dotenv file. Variables
// already present in the environment are left alone. A missing file is not
// an error when optional is true.
func LoadEnvFile(path string, optional bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load locates and parses a configuration file, overlays the environment and
// any overrides, and normalizes the result. It does not validate; callers
// decide which checks apply (see Validate).
func Load(path string, overrides ...func(*Config)) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, "", false, err
	}

	for _, override := range overrides {
		if override != nil {
			override(&cfg)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("sftpsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// AgeThreshold is the age past which an upload candidate is quarantined.
func (c *Config) AgeThreshold() time.Duration {
	return time.Duration(c.Triage.AgeThresholdSeconds) * time.Second
}

// AlertThreshold is the age quoted in quarantine notifications.
func (c *Config) AlertThreshold() time.Duration {
	return time.Duration(c.Triage.AlertThresholdSeconds) * time.Second
}

// ConnectTimeout bounds TCP connect plus SSH handshake.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Transfer.ConnectTimeout) * time.Second
}

// NotificationTimeout bounds a single notification delivery.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// HistoryPath is the SQLite file recording past runs.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath is the advisory lock file guarding against overlapping runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "sftpsync.lock")
}

// EnsureDirectories creates the state directory. Transfer directories are
// deliberately not created: a missing upload or download directory is a
// per-phase failure, and the quarantine directory is created on demand.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
