package subscriptions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

const testCardMessage = "Test mode: please use Stripe test card 4242 4242 4242 4242 (any future expiry, any CVC, any postal code). Real cards cannot be used in test mode."

// Handler exposes the bridge over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a subscriptions handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type createResponse struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscriptionId"`
	CustomerID     string `json:"customerId"`
	Status         string `json:"status"`
	TrialEnd       *int64 `json:"trialEnd"`
	Message        string `json:"message"`
}

type statusResponse struct {
	Success      bool               `json:"success"`
	Subscription subscriptionStatus `json:"subscription"`
}

type subscriptionStatus struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"currentPeriodEnd"`
	TrialEnd          *int64 `json:"trialEnd"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
}

type cancelResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	CancelAt int64  `json:"cancelAt"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Create handles POST /subscriptions/create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.Create(r.Context(), req)
	if err != nil {
		status, message := TranslateError(err)
		writeJSON(w, status, errorResponse{Error: message})
		return
	}
	if !result.Mirror.Complete() {
		h.logger.Warn("subscription mirror incomplete", "subscription_id", result.SubscriptionID, "failures", len(result.Mirror.Failures))
	}

	writeJSON(w, http.StatusOK, createResponse{
		Success:        true,
		SubscriptionID: result.SubscriptionID,
		CustomerID:     result.CustomerID,
		Status:         result.Status,
		TrialEnd:       result.TrialEnd,
		Message:        result.Message,
	})
}

// Status handles GET /subscriptions/status/{id}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := h.service.Status(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to retrieve subscription", "error", err, "subscription_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: processorMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Success: true,
		Subscription: subscriptionStatus{
			ID:                sub.ID,
			Status:            sub.Status,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			TrialEnd:          sub.TrialEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		},
	})
}

// Cancel handles POST /subscriptions/cancel/{id}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cancelAt, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to cancel subscription", "error", err, "subscription_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: processorMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{
		Success:  true,
		Message:  "Subscription will cancel at the end of the current period",
		CancelAt: cancelAt,
	})
}

// TranslateError maps a signup error to an HTTP status and browser-facing message.
func TranslateError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingFields):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, ErrUnknownPlan):
		return http.StatusBadRequest, "Invalid plan or billing cycle"
	}

	perr, ok := AsProcessorError(err)
	if !ok {
		return http.StatusInternalServerError, err.Error()
	}
	switch perr.Type {
	case CardErrorType:
		switch {
		case perr.Code == CardDeclinedCode && perr.DeclineCode == TestModeLiveCard:
			return http.StatusPaymentRequired, testCardMessage
		case perr.Code == CardDeclinedCode:
			return http.StatusPaymentRequired, "Card declined: " + perr.Message
		default:
			return http.StatusPaymentRequired, perr.Message
		}
	case InvalidRequestType:
		return http.StatusBadRequest, "Invalid request: " + perr.Message
	}
	return http.StatusInternalServerError, perr.Message
}

func processorMessage(err error) string {
	if perr, ok := AsProcessorError(err); ok && perr.Message != "" {
		return perr.Message
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
