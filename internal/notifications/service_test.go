package notifications

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"

	"sftpsync/internal/config"
	"sftpsync/internal/services"
)

type fakeMailer struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeMailer) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func newTestMailService(mailer *fakeMailer) *mailService {
	return &mailService{
		sender:    "alerts@example.com",
		recipient: "ops@example.com",
		dial:      func() (mailSender, error) { return mailer, nil },
	}
}

func renderMessage(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("render message: %v", err)
	}
	return buf.String()
}

func TestNewServiceSelectsTransports(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Mail = false
	if _, ok := NewService(&cfg).(noopService); !ok {
		t.Fatal("expected noop service without transports")
	}

	cfg.Notifications.Mail = true
	cfg.Mail.Recipient = "ops@example.com"
	if _, ok := NewService(&cfg).(*mailService); !ok {
		t.Fatal("expected mail service")
	}

	cfg.Notifications.NtfyTopic = "https://ntfy.example.com/alerts"
	if svc, ok := NewService(&cfg).(fanout); !ok || len(svc) != 2 {
		t.Fatalf("expected fanout of two, got %T", NewService(&cfg))
	}

	cfg.Notifications.Mail = false
	if _, ok := NewService(&cfg).(*ntfyService); !ok {
		t.Fatal("expected ntfy service")
	}

	if _, ok := NewService(nil).(noopService); !ok {
		t.Fatal("expected noop service for nil config")
	}
}

func TestDescribeNamesTransports(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Mail = true
	cfg.Mail.Recipient = "ops@example.com"
	cfg.Notifications.NtfyTopic = "https://ntfy.example.com/alerts"

	got := Describe(&cfg)
	if len(got) != 2 || got[0] != "mail (ops@example.com)" || got[1] != "ntfy (https://ntfy.example.com/alerts)" {
		t.Fatalf("unexpected transports %v", got)
	}

	cfg.Notifications.Mail = false
	cfg.Notifications.NtfyTopic = ""
	if got := Describe(&cfg); len(got) != 0 {
		t.Fatalf("expected no transports, got %v", got)
	}
}

func TestMailServiceSendsAlert(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestMailService(mailer)

	alert := Alert{FileName: "b.txt", Threshold: 300 * time.Second}
	if err := svc.NotifyQuarantined(context.Background(), alert); err != nil {
		t.Fatalf("NotifyQuarantined: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(mailer.sent))
	}

	rendered := renderMessage(t, mailer.sent[0])
	for _, want := range []string{
		"Subject: File Alert: b.txt",
		"From: <alerts@example.com>",
		"To: <ops@example.com>",
		"The file 'b.txt' has been in the export folder for more than 5 minutes.",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected %q in message:\n%s", want, rendered)
		}
	}
}

func TestMailServiceDeliveryFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("535 authentication failed")}
	svc := newTestMailService(mailer)

	err := svc.NotifyQuarantined(context.Background(), Alert{FileName: "b.txt"})
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if !strings.Contains(err.Error(), "535 authentication failed") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}

func TestMailServiceRejectsBadAddress(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestMailService(mailer)
	svc.recipient = "not an address"

	if err := svc.TestNotification(context.Background()); !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("expected nothing to be sent")
	}
}

func TestBody(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
		want  string
	}{
		{
			name:  "single file default threshold",
			alert: Alert{FileName: "b.txt"},
			want:  "The file 'b.txt' has been in the export folder for more than 5 minutes.",
		},
		{
			name:  "one minute",
			alert: Alert{FileName: "b.txt", Threshold: time.Minute},
			want:  "The file 'b.txt' has been in the export folder for more than 1 minute.",
		},
		{
			name:  "seconds",
			alert: Alert{FileName: "b.txt", Threshold: 90 * time.Second},
			want:  "The file 'b.txt' has been in the export folder for more than 90 seconds.",
		},
		{
			name:  "others",
			alert: Alert{FileName: "a.txt", Others: 2, Dir: "/data/error", Threshold: 5 * time.Minute},
			want:  "The file 'a.txt' has been in the export folder for more than 5 minutes.\n\n2 other files are also in quarantine in /data/error.",
		},
		{
			name:  "one other without dir",
			alert: Alert{FileName: "a.txt", Others: 1, Threshold: 5 * time.Minute},
			want:  "The file 'a.txt' has been in the export folder for more than 5 minutes.\n\n1 other file is also in quarantine.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Body(tt.alert); got != tt.want {
				t.Fatalf("Body() = %q, want %q", got, tt.want)
			}
		})
	}
	if got := Subject(Alert{FileName: " b.txt "}); got != "File Alert: b.txt" {
		t.Fatalf("Subject() = %q", got)
	}
}

func TestNtfyServiceFormatsAlert(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newNtfyService(server.URL, 5*time.Second)
	if err := svc.NotifyQuarantined(context.Background(), Alert{FileName: "b.txt", Threshold: 5 * time.Minute}); err != nil {
		t.Fatalf("NotifyQuarantined: %v", err)
	}

	if captured.title != "File Alert: b.txt" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if captured.tags != "sftpsync,quarantine,warning" {
		t.Fatalf("unexpected tags %q", captured.tags)
	}
	if captured.priority != "high" {
		t.Fatalf("unexpected priority %q", captured.priority)
	}
	if captured.body != "The file 'b.txt' has been in the export folder for more than 5 minutes." {
		t.Fatalf("unexpected body %q", captured.body)
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not allowed", http.StatusForbidden)
	}))
	defer server.Close()

	svc := newNtfyService(server.URL, 5*time.Second)
	err := svc.TestNotification(context.Background())
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	ok := &fakeMailer{}
	failing := &fakeMailer{err: errors.New("smtp down")}
	svc := fanout{newTestMailService(failing), newTestMailService(ok)}

	err := svc.NotifyQuarantined(context.Background(), Alert{FileName: "b.txt"})
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if len(ok.sent) != 1 {
		t.Fatal("expected healthy transport to still deliver")
	}
}
