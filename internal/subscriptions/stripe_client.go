package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

var stripeTracer = otel.Tracer("nexuscrux.internal.subscriptions.stripe")

const (
	defaultStripeBaseURL    = "https://api.stripe.com"
	defaultStripeAPIVersion = "2024-11-20.acacia"
)

// LatencyObserver receives the duration of each processor call.
type LatencyObserver interface {
	ObserveProcessorLatency(operation string, seconds float64)
}

// StripeClient talks to the Stripe REST API with form-encoded requests.
type StripeClient struct {
	secretKey  string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	latency    LatencyObserver
	logger     *logging.Logger
}

// NewStripeClient creates a client authenticated with a secret key.
func NewStripeClient(secretKey string, logger *logging.Logger) *StripeClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &StripeClient{
		secretKey:  secretKey,
		baseURL:    defaultStripeBaseURL,
		apiVersion: defaultStripeAPIVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (c *StripeClient) WithBaseURL(baseURL string) *StripeClient {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// WithAPIVersion pins the Stripe-Version header.
func (c *StripeClient) WithAPIVersion(version string) *StripeClient {
	if version != "" {
		c.apiVersion = version
	}
	return c
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *StripeClient) WithHTTPClient(client *http.Client) *StripeClient {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// WithLatencyObserver records per-call latency.
func (c *StripeClient) WithLatencyObserver(obs LatencyObserver) *StripeClient {
	c.latency = obs
	return c
}

func (c *StripeClient) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	form := url.Values{}
	form.Set("email", params.Email)
	form.Set("name", params.Name)
	if params.Phone != "" {
		form.Set("phone", params.Phone)
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var out Customer
	if err := c.do(ctx, "customers.create", http.MethodPost, "/v1/customers", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StripeClient) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	form := url.Values{}
	form.Set("customer", customerID)
	path := "/v1/payment_methods/" + url.PathEscape(paymentMethodID) + "/attach"
	return c.do(ctx, "payment_methods.attach", http.MethodPost, path, form, nil)
}

func (c *StripeClient) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	form := url.Values{}
	form.Set("invoice_settings[default_payment_method]", paymentMethodID)
	return c.do(ctx, "customers.update", http.MethodPost, "/v1/customers/"+url.PathEscape(customerID), form, nil)
}

func (c *StripeClient) CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error) {
	form := url.Values{}
	form.Set("customer", params.CustomerID)
	form.Set("items[0][price]", params.PriceID)
	form.Set("payment_settings[payment_method_types][0]", "card")
	form.Set("payment_settings[save_default_payment_method]", "on_subscription")
	form.Set("expand[0]", "latest_invoice.payment_intent")
	if params.TrialDays > 0 {
		form.Set("trial_period_days", strconv.Itoa(params.TrialDays))
	}

	var out Subscription
	if err := c.do(ctx, "subscriptions.create", http.MethodPost, "/v1/subscriptions", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StripeClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var out Subscription
	if err := c.do(ctx, "subscriptions.retrieve", http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StripeClient) CancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error) {
	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	var out Subscription
	if err := c.do(ctx, "subscriptions.update", http.MethodPost, "/v1/subscriptions/"+url.PathEscape(id), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StripeClient) do(ctx context.Context, op, method, path string, form url.Values, out any) error {
	ctx, span := stripeTracer.Start(ctx, "stripe."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("stripe.operation", op), attribute.String("http.method", method))

	start := time.Now()
	defer func() {
		if c.latency != nil {
			c.latency.ObserveProcessorLatency(op, time.Since(start).Seconds())
		}
	}()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("subscriptions: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Stripe-Version", c.apiVersion)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http")
		return fmt.Errorf("subscriptions: stripe http: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusMultipleChoices {
		perr := decodeStripeError(resp)
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Type)
		c.logger.Warn("stripe api error", "operation", op, "status", resp.StatusCode, "type", perr.Type, "code", perr.Code, "decline_code", perr.DeclineCode)
		return perr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("subscriptions: stripe decode: %w", err)
	}
	return nil
}

func decodeStripeError(resp *http.Response) *ProcessorError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error *ProcessorError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == nil {
		return &ProcessorError{HTTPStatus: resp.StatusCode, Type: "api_error", Message: strings.TrimSpace(string(raw))}
	}
	envelope.Error.HTTPStatus = resp.StatusCode
	return envelope.Error
}

var _ Processor = (*StripeClient)(nil)
