package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"sftpsync/internal/config"
)

const userAgent = "sftpsync/0.1.0"

// Alert describes one quarantine notification.
type Alert struct {
	// FileName is the quarantined file the alert is about.
	FileName string
	// Others counts additional files found in quarantine in the same pass.
	Others int
	// Dir is the quarantine directory.
	Dir string
	// Threshold is the age quoted in the message body.
	Threshold time.Duration
}

// Service defines the notification surface used by the sync run.
type Service interface {
	NotifyQuarantined(ctx context.Context, alert Alert) error
	TestNotification(ctx context.Context) error
}

// NewService builds the notifier described by cfg. Mail is included when
// enabled and a recipient is configured; ntfy when a topic is configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var transports []Service
	if cfg.Notifications.Mail && strings.TrimSpace(cfg.Mail.Recipient) != "" {
		transports = append(transports, newMailService(cfg.Mail, timeout))
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		transports = append(transports, newNtfyService(topic, timeout))
	}

	switch len(transports) {
	case 0:
		return noopService{}
	case 1:
		return transports[0]
	default:
		return fanout(transports)
	}
}

// Describe lists the transports NewService would build for cfg, e.g.
// "mail (ops@example.com)".
func Describe(cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	var names []string
	if cfg.Notifications.Mail && strings.TrimSpace(cfg.Mail.Recipient) != "" {
		names = append(names, fmt.Sprintf("mail (%s)", strings.TrimSpace(cfg.Mail.Recipient)))
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		names = append(names, fmt.Sprintf("ntfy (%s)", topic))
	}
	return names
}

// fanout delivers to every transport and reports all failures together.
type fanout []Service

func (f fanout) NotifyQuarantined(ctx context.Context, alert Alert) error {
	var result *multierror.Error
	for _, svc := range f {
		if err := svc.NotifyQuarantined(ctx, alert); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (f fanout) TestNotification(ctx context.Context) error {
	var result *multierror.Error
	for _, svc := range f {
		if err := svc.TestNotification(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type noopService struct{}

func (noopService) NotifyQuarantined(context.Context, Alert) error { return nil }
func (noopService) TestNotification(context.Context) error         { return nil }
