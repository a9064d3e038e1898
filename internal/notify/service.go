package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// Service emails the sales inbox about new submissions and signups.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. It returns nil when there is no
// sender or no recipient, which callers treat as "notifications disabled".
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if email == nil || len(recipients) == 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		recipients: recipients,
		logger:     logger,
	}
}

// SubmissionReceived sends a summary of a new contact submission.
func (s *Service) SubmissionReceived(ctx context.Context, label, id string, at time.Time, fields map[string]any) error {
	if s == nil {
		return nil
	}

	who := firstText(fields, "company", "company_name", "name", "email")
	subject := fmt.Sprintf("New %s", strings.ToLower(label))
	if who != "" {
		subject += " - " + who
	}

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body strings.Builder
	var rows strings.Builder
	fmt.Fprintf(&body, "A new %s was submitted on %s.\n\nSubmission ID: %s\n", strings.ToLower(label), at.UTC().Format("January 2, 2006 at 15:04 MST"), id)
	for _, k := range keys {
		fmt.Fprintf(&body, "%s: %v\n", k, fields[k])
		fmt.Fprintf(&rows, `<tr><td style="padding: 6px; border-bottom: 1px solid #e5e7eb;"><strong>%s</strong></td><td style="padding: 6px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`,
			html.EscapeString(k), html.EscapeString(fmt.Sprint(fields[k])))
	}
	body.WriteString("\n- NexusCrux website")

	page := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>New %s</h2>
<p>Submission <code>%s</code></p>
<table style="border-collapse: collapse; margin: 16px 0;">%s</table>
</div>`, html.EscapeString(strings.ToLower(label)), html.EscapeString(id), rows.String())

	return s.sendAll(ctx, EmailMessage{
		Subject:  subject,
		Body:     body.String(),
		HTML:     page,
		ReplyTo:  firstText(fields, "email"),
		Category: strings.ReplaceAll(strings.ToLower(label), " ", "-"),
	}, "id", id)
}

// Signup describes a new subscription for the sales inbox.
type Signup struct {
	SubscriptionID string
	CustomerName   string
	CustomerEmail  string
	Company        string
	Plan           string
	BillingCycle   string
	Status         string
	Trial          bool
}

// SubscriptionCreated announces a new paying or trialing customer.
func (s *Service) SubscriptionCreated(ctx context.Context, signup Signup) error {
	if s == nil {
		return nil
	}
	kind := "subscription"
	if signup.Trial {
		kind = "trial"
	}
	subject := fmt.Sprintf("New %s: %s (%s %s)", kind, signup.Company, signup.Plan, signup.BillingCycle)
	body := fmt.Sprintf(`%s signed up for the %s plan (%s).

Customer: %s <%s>
Company: %s
Status: %s
Subscription: %s

- NexusCrux website`, signup.CustomerName, signup.Plan, signup.BillingCycle,
		signup.CustomerName, signup.CustomerEmail, signup.Company, signup.Status, signup.SubscriptionID)

	return s.sendAll(ctx, EmailMessage{
		Subject:  subject,
		Body:     body,
		ReplyTo:  signup.CustomerEmail,
		Category: "subscription",
	}, "subscription_id", signup.SubscriptionID)
}

func (s *Service) sendAll(ctx context.Context, msg EmailMessage, logKey, logValue string) error {
	var errs []error
	for _, recipient := range s.recipients {
		msg.To = recipient
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send email", "error", err, "to", recipient, logKey, logValue)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("notify: email sent", "to", recipient, logKey, logValue)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d of %d emails failed: %w", len(errs), len(s.recipients), errors.Join(errs...))
	}
	return nil
}

func firstText(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
