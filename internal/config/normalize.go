package config

import (
	"fmt"
	"path"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTransfer()
	c.normalizeTriage()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	locals := []struct {
		name  string
		value *string
	}{
		{"paths.local_download_dir", &c.Paths.LocalDownloadDir},
		{"paths.local_upload_dir", &c.Paths.LocalUploadDir},
		{"paths.quarantine_dir", &c.Paths.QuarantineDir},
		{"paths.state_dir", &c.Paths.StateDir},
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	for _, local := range locals {
		expanded, err := expandPath(strings.TrimSpace(*local.value))
		if err != nil {
			return fmt.Errorf("%s: %w", local.name, err)
		}
		*local.value = expanded
	}

	// Remote paths live on the server: clean them with POSIX rules only.
	c.Paths.RemoteDownloadDir = cleanRemote(c.Paths.RemoteDownloadDir)
	c.Paths.RemoteUploadDir = cleanRemote(c.Paths.RemoteUploadDir)
	return nil
}

func cleanRemote(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return path.Clean(value)
}

func (c *Config) normalizeTransfer() {
	c.Transfer.Hostname = strings.TrimSpace(c.Transfer.Hostname)
	c.Transfer.Username = strings.TrimSpace(c.Transfer.Username)
	if c.Transfer.Port <= 0 {
		c.Transfer.Port = defaultPort
	}
	if c.Transfer.ConnectTimeout <= 0 {
		c.Transfer.ConnectTimeout = defaultConnectTimeout
	}
	if key := strings.TrimSpace(c.Transfer.PrivateKey); key != "" {
		if expanded, err := expandPath(key); err == nil {
			c.Transfer.PrivateKey = expanded
		}
	}
	if strings.TrimSpace(c.Transfer.KnownHostsFile) == "" {
		c.Transfer.KnownHostsFile = defaultKnownHostsFile
	}
	if expanded, err := expandPath(strings.TrimSpace(c.Transfer.KnownHostsFile)); err == nil {
		c.Transfer.KnownHostsFile = expanded
	}
}

func (c *Config) normalizeTriage() {
	if c.Triage.AgeThresholdSeconds <= 0 {
		c.Triage.AgeThresholdSeconds = defaultAgeThreshold
	}
	if c.Triage.AlertThresholdSeconds <= 0 {
		c.Triage.AlertThresholdSeconds = defaultAlertThreshold
	}
}

func (c *Config) normalizeNotifications() {
	c.Mail.Sender = strings.TrimSpace(c.Mail.Sender)
	c.Mail.Recipient = strings.TrimSpace(c.Mail.Recipient)
	c.Mail.SMTPHost = strings.TrimSpace(c.Mail.SMTPHost)
	if c.Mail.SMTPHost == "" {
		c.Mail.SMTPHost = defaultSMTPHost
	}
	if c.Mail.SMTPPort <= 0 {
		c.Mail.SMTPPort = defaultSMTPPort
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if dir := strings.TrimSpace(c.Logging.Dir); dir != "" {
		if expanded, err := expandPath(dir); err == nil {
			c.Logging.Dir = expanded
		}
	}
}
