package subscriptions

import (
	"context"
	"errors"
	"fmt"
)

// Stripe error types that change the HTTP status returned to the browser.
const (
	CardErrorType      = "card_error"
	InvalidRequestType = "invalid_request_error"
	CardDeclinedCode   = "card_declined"
	TestModeLiveCard   = "test_mode_live_card"
)

// Customer is the subset of a Stripe customer the bridge reads.
type Customer struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
}

// Subscription is the subset of a Stripe subscription the bridge reads.
// Timestamps are unix seconds.
type Subscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	Created            int64  `json:"created"`
	TrialStart         *int64 `json:"trial_start"`
	TrialEnd           *int64 `json:"trial_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CancelAt           *int64 `json:"cancel_at"`
}

// CustomerParams describe a new customer.
type CustomerParams struct {
	Email    string
	Name     string
	Phone    string
	Metadata map[string]string
}

// SubscriptionParams describe a new card-only subscription.
type SubscriptionParams struct {
	CustomerID string
	PriceID    string
	// TrialDays is omitted from the request when zero.
	TrialDays int
}

// Processor is the payment processor surface the bridge needs.
type Processor interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error)
}

// ProcessorError is an error reported by the processor API.
type ProcessorError struct {
	HTTPStatus  int    `json:"-"`
	Type        string `json:"type"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

func (e *ProcessorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe %s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("stripe %s: %s", e.Type, e.Message)
}

// AsProcessorError unwraps err into a ProcessorError.
func AsProcessorError(err error) (*ProcessorError, bool) {
	var perr *ProcessorError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
