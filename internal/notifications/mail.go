package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"sftpsync/internal/config"
	"sftpsync/internal/services"
)

// mailSender is the part of *mail.Client the service uses.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type mailService struct {
	sender    string
	recipient string
	dial      func() (mailSender, error)
}

func newMailService(cfg config.Mail, timeout time.Duration) *mailService {
	return &mailService{
		sender:    cfg.Sender,
		recipient: cfg.Recipient,
		dial: func() (mailSender, error) {
			return mail.NewClient(cfg.SMTPHost,
				mail.WithPort(cfg.SMTPPort),
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(cfg.Sender),
				mail.WithPassword(cfg.Secret),
				mail.WithTLSPolicy(mail.TLSMandatory),
				mail.WithTimeout(timeout),
			)
		},
	}
}

func (m *mailService) NotifyQuarantined(ctx context.Context, alert Alert) error {
	return m.send(ctx, Subject(alert), Body(alert))
}

func (m *mailService) TestNotification(ctx context.Context) error {
	return m.send(ctx, testSubject, testBody())
}

func (m *mailService) send(ctx context.Context, subject, body string) error {
	msg, err := m.compose(subject, body)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "notifications", "mail", "compose message", err)
	}
	client, err := m.dial()
	if err != nil {
		return services.Wrap(services.ErrDelivery, "notifications", "mail", "configure smtp client", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return services.Wrap(services.ErrDelivery, "notifications", "mail", fmt.Sprintf("send to %s", m.recipient), err)
	}
	return nil
}

func (m *mailService) compose(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return nil, fmt.Errorf("sender %q: %w", m.sender, err)
	}
	if err := msg.To(m.recipient); err != nil {
		return nil, fmt.Errorf("recipient %q: %w", m.recipient, err)
	}
	msg.Subject(subject)
	msg.SetUserAgent(userAgent)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
