package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type mockEmailSender struct {
	sent    []EmailMessage
	failOn  string // fail if To matches this
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestNewService_NilWhenDisabled(t *testing.T) {
	if NewService(nil, []string{"sales@nexuscrux.com"}, nil) != nil {
		t.Error("expected nil service without a sender")
	}
	if NewService(&mockEmailSender{}, nil, nil) != nil {
		t.Error("expected nil service without recipients")
	}

	var svc *Service
	if err := svc.SubmissionReceived(context.Background(), "Demo request", "id", time.Now(), nil); err != nil {
		t.Errorf("nil service should be a no-op, got %v", err)
	}
}

func TestSubmissionReceived_SendsSummary(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, []string{"sales@nexuscrux.com", "ops@nexuscrux.com"}, nil)

	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	err := svc.SubmissionReceived(context.Background(), "Demo request", "abc-123", at, map[string]any{
		"name":    "Ada",
		"company": "Acme <Ltd>",
		"email":   "ada@example.com",
		"phone":   nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Subject != "New demo request - Acme <Ltd>" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Submission ID: abc-123") || strings.Contains(msg.Body, "phone") {
		t.Errorf("unexpected body %q", msg.Body)
	}
	if !strings.Contains(msg.HTML, "Acme &lt;Ltd&gt;") {
		t.Errorf("expected escaped html, got %q", msg.HTML)
	}
	if msg.ReplyTo != "ada@example.com" || msg.Category != "demo-request" {
		t.Errorf("unexpected reply-to %q / category %q", msg.ReplyTo, msg.Category)
	}
	if sender.sent[1].To != "ops@nexuscrux.com" {
		t.Errorf("expected second recipient, got %q", sender.sent[1].To)
	}
}

func TestSubmissionReceived_PartialFailure(t *testing.T) {
	sender := &mockEmailSender{failOn: "broken@nexuscrux.com"}
	svc := NewService(sender, []string{"broken@nexuscrux.com", "sales@nexuscrux.com"}, nil)

	err := svc.SubmissionReceived(context.Background(), "Partner inquiry", "p-1", time.Now(), map[string]any{"email": "p@example.com"})
	if err == nil {
		t.Fatal("expected error when one recipient fails")
	}
	if len(sender.sent) != 1 {
		t.Errorf("expected remaining recipient to be sent, got %d", len(sender.sent))
	}
}

func TestSubscriptionCreated(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, []string{"sales@nexuscrux.com"}, nil)

	err := svc.SubscriptionCreated(context.Background(), Signup{
		SubscriptionID: "sub_123",
		CustomerName:   "Ada",
		CustomerEmail:  "ada@example.com",
		Company:        "Acme",
		Plan:           "growth",
		BillingCycle:   "annual",
		Status:         "trialing",
		Trial:          true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sender.sent[0].Subject; got != "New trial: Acme (growth annual)" {
		t.Errorf("unexpected subject %q", got)
	}
	if got := sender.sent[0]; got.ReplyTo != "ada@example.com" || got.Category != "subscription" {
		t.Errorf("unexpected reply-to %q / category %q", got.ReplyTo, got.Category)
	}
}
