package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// environment lists the variables the legacy export script was driven by.
// Names are kept so existing .env files keep working.
type environment struct {
	SenderEmail          string `envconfig:"SENDER_EMAIL"`
	ReceiverEmail        string `envconfig:"RECEIVER_EMAIL"`
	MailSecret           string `envconfig:"KEY"`
	QuarantineDir        string `envconfig:"LOCAL_ERROR_PATH"`
	RemoteDownloadDir    string `envconfig:"REMOTE_DOWNLOAD_PATH"`
	LocalDownloadDir     string `envconfig:"LOCAL_DOWNLOAD_PATH"`
	LocalUploadDir       string `envconfig:"LOCAL_UPLOAD_PATH"`
	RemoteUploadDir      string `envconfig:"REMOTE_UPLOAD_PATH"`
	PrivateKeyPassphrase string `envconfig:"PRIVATE_KEY_PASSPHRASE"`
	NtfyTopic            string `envconfig:"NTFY_TOPIC"`
}

// EnvironmentKeys returns the variable names consulted by Load, in the order
// they are documented.
func EnvironmentKeys() []string {
	return []string{
		"SENDER_EMAIL", "RECEIVER_EMAIL", "KEY",
		"LOCAL_ERROR_PATH", "REMOTE_DOWNLOAD_PATH", "LOCAL_DOWNLOAD_PATH",
		"LOCAL_UPLOAD_PATH", "REMOTE_UPLOAD_PATH",
		"PRIVATE_KEY_PASSPHRASE", "NTFY_TOPIC",
	}
}

func (c *Config) applyEnvironment() error {
	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	overlay := func(dst *string, value string) {
		if value = strings.TrimSpace(value); value != "" {
			*dst = value
		}
	}

	overlay(&c.Mail.Sender, env.SenderEmail)
	overlay(&c.Mail.Recipient, env.ReceiverEmail)
	overlay(&c.Mail.Secret, env.MailSecret)
	overlay(&c.Paths.QuarantineDir, env.QuarantineDir)
	overlay(&c.Paths.RemoteDownloadDir, env.RemoteDownloadDir)
	overlay(&c.Paths.LocalDownloadDir, env.LocalDownloadDir)
	overlay(&c.Paths.LocalUploadDir, env.LocalUploadDir)
	overlay(&c.Paths.RemoteUploadDir, env.RemoteUploadDir)
	overlay(&c.Transfer.PrivateKeyPassphrase, env.PrivateKeyPassphrase)
	overlay(&c.Notifications.NtfyTopic, env.NtfyTopic)
	return nil
}
