package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// Providers accepted by NOTIFY_PROVIDER.
const (
	ProviderNone     = "none"
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
)

const (
	defaultFromName = "NexusCrux"
	// baseCategory tags every message the website sends.
	baseCategory = "website-intake"
)

// EmailSender delivers one message to one inbox.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a sales-inbox notification.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
	// ReplyTo is the submitter's address so sales can answer from the inbox.
	ReplyTo string
	// Category identifies the source form, e.g. "demo-request" or "subscription".
	Category string
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds the API key and sender identity.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  fromNameOrDefault(cfg.FromName),
		logger:    logger,
	}
}

// message builds the v3 payload: plain and HTML parts, the submitter as
// reply-to, and the base plus per-form categories.
func (s *SendGridSender) message(msg EmailMessage) *mail.SGMailV3 {
	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = "<pre>" + msg.Body + "</pre>"
	}
	m := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		htmlBody,
	)
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	m.AddCategories(categories(msg)...)
	return m
}

// Send delivers msg; any 4xx/5xx from SendGrid is an error.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	response, err := s.client.SendWithContext(ctx, s.message(msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected message", "status", response.StatusCode, "body", response.Body, "category", msg.Category)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}
	s.logger.Debug("sendgrid accepted message", "status", response.StatusCode, "category", msg.Category)
	return nil
}

// LogSender only logs. Used when NOTIFY_PROVIDER=none or a provider lacks credentials.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("notification not sent: no email provider",
		"to", msg.To, "subject", msg.Subject, "reply_to", msg.ReplyTo, "category", msg.Category)
	return nil
}

// ParseRecipients splits a comma separated NOTIFY_TO_EMAIL value.
func ParseRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func categories(msg EmailMessage) []string {
	if msg.Category == "" || msg.Category == baseCategory {
		return []string{baseCategory}
	}
	return []string{baseCategory, msg.Category}
}

func fromNameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return defaultFromName
	}
	return name
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*LogSender)(nil)
)
