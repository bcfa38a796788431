package config

const (
	defaultConfigPath          = "~/.config/sftpsync/config.toml"
	defaultStateDir            = "~/.local/share/sftpsync"
	defaultPort                = 22
	defaultConnectTimeout      = 30
	defaultAgeThreshold        = 300
	defaultAlertThreshold      = 300
	defaultSMTPHost            = "smtp.gmail.com"
	defaultSMTPPort            = 587
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultKnownHostsFile      = "~/.ssh/known_hosts"
	defaultMailNotifications   = true
	defaultInsecureHostKeyMode = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Transfer: Transfer{
			Port:                  defaultPort,
			KnownHostsFile:        defaultKnownHostsFile,
			InsecureIgnoreHostKey: defaultInsecureHostKeyMode,
			ConnectTimeout:        defaultConnectTimeout,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Triage: Triage{
			AgeThresholdSeconds:   defaultAgeThreshold,
			AlertThresholdSeconds: defaultAlertThreshold,
		},
		Mail: Mail{
			SMTPHost: defaultSMTPHost,
			SMTPPort: defaultSMTPPort,
		},
		Notifications: Notifications{
			Mail:           defaultMailNotifications,
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
