// Package subscriptions creates Stripe subscriptions for website signups and
// mirrors them into local tables.
package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgs-intellisol/nexuscrux-website/internal/notify"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

var (
	// ErrMissingFields is returned when plan, cycle, customer or payment method is absent.
	ErrMissingFields = errors.New("subscriptions: missing required fields")

	// ErrUnknownPlan is returned for a plan and cycle with no price.
	ErrUnknownPlan = errors.New("subscriptions: invalid plan or billing cycle")
)

const notifyTimeout = 5 * time.Second

// CustomerInfo is the signup form's contact block.
type CustomerInfo struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Company        string `json:"company"`
	Phone          string `json:"phone"`
	AdditionalInfo string `json:"additionalInfo"`
}

// CreateRequest is the body of POST /subscriptions/create.
type CreateRequest struct {
	PlanName        string        `json:"planName"`
	BillingCycle    string        `json:"billingCycle"`
	HasTrial        bool          `json:"hasTrial"`
	CustomerInfo    *CustomerInfo `json:"customerInfo"`
	PaymentMethodID string        `json:"paymentMethodId"`
}

// CreateResult is what a successful signup returns.
type CreateResult struct {
	SubscriptionID string
	CustomerID     string
	Status         string
	TrialEnd       *int64
	Message        string
	Mirror         MirrorReport
}

// SignupNotifier announces new subscriptions.
type SignupNotifier interface {
	SubscriptionCreated(ctx context.Context, signup notify.Signup) error
}

// OutcomeObserver counts signups by outcome.
type OutcomeObserver interface {
	ObserveSubscription(outcome string)
}

// Service runs the signup sequence against the processor and mirrors the result.
type Service struct {
	processor Processor
	prices    *PriceBook
	mirror    Mirror
	notifier  SignupNotifier
	outcomes  OutcomeObserver
	logger    *logging.Logger
}

// NewService wires the bridge. mirror, notifier and outcomes may be nil.
func NewService(processor Processor, prices *PriceBook, mirror Mirror, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if prices == nil {
		prices = NewPriceBook(nil)
	}
	return &Service{processor: processor, prices: prices, mirror: mirror, logger: logger}
}

// WithNotifier sends a sales notification after each signup.
func (s *Service) WithNotifier(n SignupNotifier) *Service {
	s.notifier = n
	return s
}

// WithOutcomes records signup outcomes.
func (s *Service) WithOutcomes(o OutcomeObserver) *Service {
	s.outcomes = o
	return s
}

// Create runs customer create, payment method attach, default payment method
// update and subscription create, in that order, then mirrors the result.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	req.PlanName, req.BillingCycle = NormalizeKey(req.PlanName), NormalizeKey(req.BillingCycle)
	if req.PlanName == "" || req.BillingCycle == "" ||
		req.CustomerInfo == nil || strings.TrimSpace(req.PaymentMethodID) == "" {
		return nil, ErrMissingFields
	}
	priceID, ok := s.prices.PriceID(req.PlanName, req.BillingCycle)
	if !ok {
		return nil, ErrUnknownPlan
	}
	info := req.CustomerInfo

	customer, err := s.processor.CreateCustomer(ctx, CustomerParams{
		Email: info.Email,
		Name:  info.Name,
		Phone: info.Phone,
		Metadata: map[string]string{
			"company":        info.Company,
			"plan":           req.PlanName,
			"billingCycle":   req.BillingCycle,
			"additionalInfo": info.AdditionalInfo,
		},
	})
	if err != nil {
		return nil, s.failed("create customer", err)
	}
	if err := s.processor.AttachPaymentMethod(ctx, req.PaymentMethodID, customer.ID); err != nil {
		return nil, s.failed("attach payment method", err)
	}
	if err := s.processor.SetDefaultPaymentMethod(ctx, customer.ID, req.PaymentMethodID); err != nil {
		return nil, s.failed("set default payment method", err)
	}

	params := SubscriptionParams{CustomerID: customer.ID, PriceID: priceID}
	if req.HasTrial {
		params.TrialDays = TrialDays
	}
	sub, err := s.processor.CreateSubscription(ctx, params)
	if err != nil {
		return nil, s.failed("create subscription", err)
	}

	s.logger.Info("subscription created",
		"subscription_id", sub.ID, "customer_id", customer.ID,
		"plan", req.PlanName, "billing_cycle", req.BillingCycle, "trial", req.HasTrial)
	s.observe(sub.Status)

	result := &CreateResult{
		SubscriptionID: sub.ID,
		CustomerID:     customer.ID,
		Status:         sub.Status,
		TrialEnd:       sub.TrialEnd,
		Message:        "Subscription created and payment processed",
	}
	if req.HasTrial {
		result.Message = fmt.Sprintf("Subscription created with %d-day free trial", TrialDays)
	}

	if s.mirror != nil {
		result.Mirror = s.mirror.Record(ctx, Signup{
			Request:      req,
			PriceID:      priceID,
			Amount:       Amount(req.PlanName, req.BillingCycle),
			Customer:     customer,
			Subscription: sub,
		})
	}
	s.notify(ctx, req, sub)
	return result, nil
}

// Status reads a subscription from the processor.
func (s *Service) Status(ctx context.Context, id string) (*Subscription, error) {
	sub, err := s.processor.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("subscriptions: retrieve %s: %w", id, err)
	}
	return sub, nil
}

// Cancel schedules cancellation at the end of the current period and returns
// the effective cancellation time in unix seconds.
func (s *Service) Cancel(ctx context.Context, id string) (int64, error) {
	sub, err := s.processor.CancelAtPeriodEnd(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("subscriptions: cancel %s: %w", id, err)
	}
	s.logger.Info("subscription will cancel at period end", "subscription_id", id)
	if sub.CancelAt != nil {
		return *sub.CancelAt, nil
	}
	return sub.CurrentPeriodEnd, nil
}

func (s *Service) failed(step string, err error) error {
	s.logger.Error("subscription signup failed", "step", step, "error", err)
	s.observe("failed")
	return fmt.Errorf("subscriptions: %s: %w", step, err)
}

func (s *Service) observe(outcome string) {
	if s.outcomes != nil {
		s.outcomes.ObserveSubscription(outcome)
	}
}

func (s *Service) notify(ctx context.Context, req CreateRequest, sub *Subscription) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := s.notifier.SubscriptionCreated(ctx, notify.Signup{
		SubscriptionID: sub.ID,
		CustomerName:   req.CustomerInfo.Name,
		CustomerEmail:  req.CustomerInfo.Email,
		Company:        req.CustomerInfo.Company,
		Plan:           req.PlanName,
		BillingCycle:   req.BillingCycle,
		Status:         sub.Status,
		Trial:          req.HasTrial,
	})
	if err != nil {
		s.logger.Warn("signup notification failed", "error", err, "subscription_id", sub.ID)
	}
}
