package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
)

func newTestRouter(t *testing.T, stub *stripeStub, gw store.Gateway) http.Handler {
	t.Helper()
	h := NewHandler(newTestService(t, stub, gw), nil)
	r := chi.NewRouter()
	r.Post("/subscriptions/create", h.Create)
	r.Get("/subscriptions/status/{id}", h.Status)
	r.Post("/subscriptions/cancel/{id}", h.Cancel)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

const createBody = `{"planName":"growth","billingCycle":"monthly","hasTrial":true,"paymentMethodId":"pm_card",
	"customerInfo":{"name":"Jane","email":"jane@acme.test","company":"Acme"}}`

func TestHandler_CreateSuccess(t *testing.T) {
	stub := newStripeStub()
	gw := store.NewMemoryGateway(CustomersCollection, SubscriptionsCollection, SubscriptionEventsCollection)
	rec, body := doJSON(t, newTestRouter(t, stub, gw), http.MethodPost, "/subscriptions/create", createBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "sub_123", body["subscriptionId"])
	assert.Equal(t, "cus_123", body["customerId"])
	assert.Equal(t, "trialing", body["status"])
	assert.EqualValues(t, 1701209600, body["trialEnd"])
	assert.Equal(t, "Subscription created with 14-day free trial", body["message"])
}

func TestHandler_CreateSucceedsWhenMirrorTablesMissing(t *testing.T) {
	stub := newStripeStub()
	rec, body := doJSON(t, newTestRouter(t, stub, store.NewMemoryGateway()), http.MethodPost, "/subscriptions/create", createBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sub_123", body["subscriptionId"])
}

func TestHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		failCall   string
		errType    string
		code       string
		decline    string
		message    string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing fields",
			body:       `{"planName":"growth","billingCycle":"monthly"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required fields",
		},
		{
			name:       "unknown plan",
			body:       strings.Replace(createBody, "growth", "enterprise", 1),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid plan or billing cycle",
		},
		{
			name:       "live card in test mode",
			body:       createBody,
			failCall:   "POST /v1/payment_methods/pm_card/attach",
			errType:    CardErrorType,
			code:       CardDeclinedCode,
			decline:    TestModeLiveCard,
			message:    "Your card was declined.",
			wantStatus: http.StatusPaymentRequired,
			wantError:  testCardMessage,
		},
		{
			name:       "card declined",
			body:       createBody,
			failCall:   "POST /v1/subscriptions",
			errType:    CardErrorType,
			code:       CardDeclinedCode,
			decline:    "insufficient_funds",
			message:    "Your card has insufficient funds.",
			wantStatus: http.StatusPaymentRequired,
			wantError:  "Card declined: Your card has insufficient funds.",
		},
		{
			name:       "invalid request",
			body:       createBody,
			failCall:   "POST /v1/customers",
			errType:    InvalidRequestType,
			code:       "parameter_invalid",
			message:    "Invalid email address",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request: Invalid email address",
		},
		{
			name:       "api error",
			body:       createBody,
			failCall:   "POST /v1/customers",
			errType:    "api_error",
			message:    "Something went wrong",
			wantStatus: http.StatusInternalServerError,
			wantError:  "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStripeStub()
			if tt.failCall != "" {
				stub.fail(tt.failCall, http.StatusPaymentRequired, tt.errType, tt.code, tt.decline, tt.message)
			}
			rec, body := doJSON(t, newTestRouter(t, stub, nil), http.MethodPost, "/subscriptions/create", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestHandler_CreateRejectsMalformedBody(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(t, newStripeStub(), nil), http.MethodPost, "/subscriptions/create", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestHandler_Status(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(t, newStripeStub(), nil), http.MethodGet, "/subscriptions/status/sub_123", "")
	require.Equal(t, http.StatusOK, rec.Code)

	sub := body["subscription"].(map[string]any)
	assert.Equal(t, "sub_123", sub["id"])
	assert.Equal(t, "trialing", sub["status"])
	assert.EqualValues(t, 1702592000, sub["currentPeriodEnd"])
	assert.EqualValues(t, 1701209600, sub["trialEnd"])
	assert.Equal(t, false, sub["cancelAtPeriodEnd"])
}

func TestHandler_StatusFailureIs500(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(t, newStripeStub(), nil), http.MethodGet, "/subscriptions/status/sub_missing", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "No such route")
}

func TestHandler_Cancel(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(t, newStripeStub(), nil), http.MethodPost, "/subscriptions/cancel/sub_123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Subscription will cancel at the end of the current period", body["message"])
	assert.EqualValues(t, 1702592000, body["cancelAt"])
}
