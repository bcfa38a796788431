package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"sftpsync/internal/services"
)

// Validate checks that every value a sync run needs is present. All missing
// values are reported together so a single attempt surfaces the full list.
func (c *Config) Validate() error {
	var result *multierror.Error

	require := func(value, name, source string) {
		if strings.TrimSpace(value) == "" {
			result = multierror.Append(result, fmt.Errorf("%s is required (%s)", name, source))
		}
	}

	require(c.Transfer.Hostname, "transfer.hostname", "--hostname")
	require(c.Transfer.Username, "transfer.username", "--username")
	require(c.Transfer.PrivateKey, "transfer.private_key", "--private-key")

	require(c.Paths.QuarantineDir, "paths.quarantine_dir", "LOCAL_ERROR_PATH")
	require(c.Paths.RemoteDownloadDir, "paths.remote_download_dir", "REMOTE_DOWNLOAD_PATH")
	require(c.Paths.LocalDownloadDir, "paths.local_download_dir", "LOCAL_DOWNLOAD_PATH")
	require(c.Paths.LocalUploadDir, "paths.local_upload_dir", "LOCAL_UPLOAD_PATH")
	require(c.Paths.RemoteUploadDir, "paths.remote_upload_dir", "REMOTE_UPLOAD_PATH")

	if c.Notifications.Mail {
		require(c.Mail.Sender, "mail.sender", "SENDER_EMAIL")
		require(c.Mail.Recipient, "mail.recipient", "RECEIVER_EMAIL")
		require(c.Mail.Secret, "mail.secret", "KEY")
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	return nil
}

// ValidateQuarantine checks only what the read-only quarantine listing needs.
func (c *Config) ValidateQuarantine() error {
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		return fmt.Errorf("%w: paths.quarantine_dir is required (LOCAL_ERROR_PATH)", services.ErrConfiguration)
	}
	return nil
}
