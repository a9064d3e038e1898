package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// Mirror collections.
const (
	CustomersCollection          = "customers"
	SubscriptionsCollection      = "subscriptions"
	SubscriptionEventsCollection = "subscription_events"
)

// Mirror steps, used in reports and metrics.
const (
	StepCustomer     = "customer"
	StepSubscription = "subscription"
	StepEvent        = "event"
)

// Signup is everything the mirror needs after Stripe accepted a subscription.
type Signup struct {
	Request      CreateRequest
	PriceID      string
	Amount       decimal.Decimal
	Customer     *Customer
	Subscription *Subscription
}

// MirrorFailure records one local write that did not happen.
type MirrorFailure struct {
	Step string
	Err  error
}

// MirrorReport describes what was written locally. Stripe stays the source of
// truth, so a partial report never fails the signup.
type MirrorReport struct {
	CustomerRowID     string
	SubscriptionRowID string
	EventRecorded     bool
	Failures          []MirrorFailure
}

// Complete reports whether every mirror row was written.
func (r MirrorReport) Complete() bool {
	return len(r.Failures) == 0 && r.EventRecorded
}

// Mirror copies a new subscription into local storage.
type Mirror interface {
	Record(ctx context.Context, signup Signup) MirrorReport
}

// FailureObserver is told about each failed mirror step.
type FailureObserver interface {
	ObserveMirrorFailure(step string)
}

// StoreMirror writes customer, subscription and event rows through a store gateway.
type StoreMirror struct {
	store    store.Gateway
	failures FailureObserver
	logger   *logging.Logger
}

// NewStoreMirror creates a mirror over gw.
func NewStoreMirror(gw store.Gateway, failures FailureObserver, logger *logging.Logger) *StoreMirror {
	if logger == nil {
		logger = logging.Default()
	}
	return &StoreMirror{store: gw, failures: failures, logger: logger}
}

// Record writes the three mirror rows in order. The event row needs both the
// customer and subscription rows and is skipped when either is missing.
func (m *StoreMirror) Record(ctx context.Context, s Signup) MirrorReport {
	var report MirrorReport
	req := s.Request

	customer, err := m.store.Insert(ctx, CustomersCollection, store.Row{
		"stripe_customer_id": s.Customer.ID,
		"email":              req.CustomerInfo.Email,
		"name":               req.CustomerInfo.Name,
		"phone":              nullable(req.CustomerInfo.Phone),
		"company":            nullable(req.CustomerInfo.Company),
		"status":             "active",
		"stripe_created_at":  unixTime(s.Customer.Created),
	})
	if err != nil {
		m.fail(&report, StepCustomer, err, "stripe_customer_id", s.Customer.ID)
	} else {
		report.CustomerRowID = customer.ID
		m.logger.Info("customer mirrored", "id", customer.ID, "stripe_customer_id", s.Customer.ID)
	}

	sub := s.Subscription
	row := store.Row{
		"stripe_subscription_id": sub.ID,
		"stripe_customer_id":     s.Customer.ID,
		"stripe_price_id":        s.PriceID,
		"customer_id":            nullable(report.CustomerRowID),
		"plan_name":              strings.ToLower(req.PlanName),
		"billing_cycle":          strings.ToLower(req.BillingCycle),
		"amount":                 s.Amount,
		"currency":               Currency,
		"status":                 sub.Status,
		"has_trial":              req.HasTrial,
		"trial_start":            nil,
		"trial_end":              nil,
		"current_period_start":   unixTime(sub.CurrentPeriodStart),
		"current_period_end":     unixTime(sub.CurrentPeriodEnd),
		"cancel_at_period_end":   sub.CancelAtPeriodEnd,
		"signup_source":          signupSource(req.HasTrial),
		"additional_info":        nullable(req.CustomerInfo.AdditionalInfo),
		"stripe_created_at":      unixTime(sub.Created),
	}
	if req.HasTrial {
		row["trial_start"] = optionalUnix(sub.TrialStart)
		row["trial_end"] = optionalUnix(sub.TrialEnd)
	}
	subscription, err := m.store.Insert(ctx, SubscriptionsCollection, row)
	if err != nil {
		m.fail(&report, StepSubscription, err, "stripe_subscription_id", sub.ID)
	} else {
		report.SubscriptionRowID = subscription.ID
		m.logger.Info("subscription mirrored", "id", subscription.ID, "stripe_subscription_id", sub.ID)
	}

	if report.CustomerRowID == "" || report.SubscriptionRowID == "" {
		return report
	}

	_, err = m.store.Insert(ctx, SubscriptionEventsCollection, store.Row{
		"subscription_id":        report.SubscriptionRowID,
		"customer_id":            report.CustomerRowID,
		"stripe_subscription_id": sub.ID,
		"event_type":             "subscription_created",
		"description":            SignupDescription(req.PlanName, req.BillingCycle, req.HasTrial),
		"metadata": map[string]any{
			"plan":          req.PlanName,
			"billing_cycle": req.BillingCycle,
			"has_trial":     req.HasTrial,
			"amount":        s.Amount.InexactFloat64(),
		},
	})
	if err != nil {
		m.fail(&report, StepEvent, err, "stripe_subscription_id", sub.ID)
		return report
	}
	report.EventRecorded = true
	return report
}

func (m *StoreMirror) fail(report *MirrorReport, step string, err error, args ...any) {
	report.Failures = append(report.Failures, MirrorFailure{Step: step, Err: err})
	m.logger.Error("subscription mirror write failed", append([]any{"step", step, "error", err}, args...)...)
	if m.failures != nil {
		m.failures.ObserveMirrorFailure(step)
	}
}

// SignupDescription is the human summary stored on the subscription_created event.
func SignupDescription(plan, cycle string, trial bool) string {
	desc := fmt.Sprintf("Customer signed up for %s plan (%s)", plan, cycle)
	if trial {
		desc += fmt.Sprintf(" with %d-day trial", TrialDays)
	}
	return desc
}

func signupSource(trial bool) string {
	if trial {
		return "trial"
	}
	return "direct"
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func optionalUnix(sec *int64) any {
	if sec == nil {
		return nil
	}
	return unixTime(*sec)
}

var _ Mirror = (*StoreMirror)(nil)
