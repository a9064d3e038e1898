package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

const (
	maxListLimit  = 500
	notifyTimeout = 5 * time.Second

	setupGuide = "Run `migrate up` (cmd/migrate) against DATABASE_URL to create the intake tables"
)

// Notifier tells the sales inbox about a new submission.
type Notifier interface {
	SubmissionReceived(ctx context.Context, label, id string, at time.Time, fields map[string]any) error
}

// Recorder receives intake metrics.
type Recorder interface {
	ObserveSubmission(kind, outcome string)
	ObserveStatusUpdate(kind, status string)
	ObserveNotification(kind, outcome string)
	ObserveLatency(kind, operation string, seconds float64)
}

// Handler serves create, list, get and update for every submission kind.
type Handler struct {
	store    store.Gateway
	notifier Notifier
	metrics  Recorder
	logger   *logging.Logger
	now      func() time.Time
}

// Option customises a Handler.
type Option func(*Handler)

// WithNotifier sends a notification after each successful create.
func WithNotifier(n Notifier) Option {
	return func(h *Handler) { h.notifier = n }
}

// WithMetrics records submission and update counters.
func WithMetrics(m Recorder) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithClock overrides the clock used for lifecycle stamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates an intake handler.
func NewHandler(gw store.Gateway, logger *logging.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		store:  gw,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create handles POST /contact/{kind}.
func (h *Handler) Create(k *Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		payload, err := decodeBody(r)
		if err != nil {
			h.logger.Error("failed to decode request", "error", err, "kind", k.Name)
			writeError(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
			return
		}

		kind := resolveVariant(k, payload)
		defer h.observeLatency(kind.Name, "create", start)

		if err := Validate(kind, payload); err != nil {
			h.rejectSubmission(w, kind, err)
			return
		}
		row, err := BuildRow(kind, payload, MetadataFromRequest(r))
		if err != nil {
			h.rejectSubmission(w, kind, err)
			return
		}

		inserted, err := h.store.Insert(r.Context(), kind.Collection, row)
		if err != nil {
			h.logger.Error("failed to insert submission", "error", err, "kind", kind.Name, "code", store.ErrorCode(err))
			h.observeSubmission(kind.Name, "error")
			h.writeStoreError(w, kind, "Failed to submit "+strings.ToLower(kind.Label), err)
			return
		}

		h.observeSubmission(kind.Name, "created")
		h.logger.Info("submission received", "kind", kind.Name, "id", inserted.ID)
		h.notify(r.Context(), kind, inserted, row)

		writeJSON(w, http.StatusOK, createResponse{
			Success:      true,
			Message:      kind.Label + " submitted successfully",
			SubmissionID: inserted.ID,
			SubmittedAt:  inserted.CreatedAt,
		})
	}
}

// List handles GET /contact/{kind}.
func (h *Handler) List(k *Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer h.observeLatency(k.Name, "list", time.Now())

		q, err := parseListQuery(k, r)
		if err != nil {
			writeValidationError(w, err)
			return
		}

		page, err := h.store.Select(r.Context(), k.Collection, q)
		if err != nil {
			h.logger.Error("failed to list submissions", "error", err, "kind", k.Name)
			h.writeStoreError(w, k, "Failed to fetch "+k.Plural, err)
			return
		}

		writeJSON(w, http.StatusOK, listResponse{
			Success: true,
			Data:    page.Rows,
			Count:   page.Count,
			Limit:   q.Limit,
			Offset:  q.Offset,
		})
	}
}

// Get handles GET /contact/{kind}/{id}.
func (h *Handler) Get(k *Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer h.observeLatency(k.Name, "get", time.Now())

		id := chi.URLParam(r, "id")
		row, err := h.store.Get(r.Context(), k.Collection, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, errorBody{Error: k.Label + " not found"})
				return
			}
			h.logger.Error("failed to fetch submission", "error", err, "kind", k.Name, "id", id)
			h.writeStoreError(w, k, "Failed to fetch "+strings.ToLower(k.Label), err)
			return
		}
		writeJSON(w, http.StatusOK, rowResponse{Success: true, Data: row})
	}
}

// Update handles PATCH /contact/{kind}/{id}.
func (h *Handler) Update(k *Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer h.observeLatency(k.Name, "update", time.Now())

		id := chi.URLParam(r, "id")
		body, err := decodeBody(r)
		if err != nil {
			h.logger.Error("failed to decode request", "error", err, "kind", k.Name)
			writeError(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
			return
		}

		patch, err := BuildPatch(k, body, h.now())
		if err != nil {
			writeValidationError(w, err)
			return
		}

		row, err := h.store.Update(r.Context(), k.Collection, id, patch)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, errorBody{Error: k.Label + " not found"})
			return
		case errors.Is(err, store.ErrEmptyPatch):
			writeError(w, http.StatusBadRequest, errorBody{Error: "No fields to update"})
			return
		default:
			h.logger.Error("failed to update submission", "error", err, "kind", k.Name, "id", id)
			h.writeStoreError(w, k, "Failed to update "+strings.ToLower(k.Label), err)
			return
		}

		if status, ok := StatusOf(patch); ok {
			if h.metrics != nil {
				h.metrics.ObserveStatusUpdate(k.Name, status)
			}
			h.logger.Info("submission status updated", "kind", k.Name, "id", id, "status", status)
		}
		writeJSON(w, http.StatusOK, updateResponse{
			Success: true,
			Message: k.Label + " updated successfully",
			Data:    row,
		})
	}
}

func (h *Handler) rejectSubmission(w http.ResponseWriter, k *Kind, err error) {
	h.logger.Warn("submission rejected", "kind", k.Name, "error", err)
	h.observeSubmission(k.Name, "invalid")
	writeValidationError(w, err)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, k *Kind, message string, err error) {
	if store.IsCollectionMissing(err) {
		writeError(w, http.StatusInternalServerError, errorBody{
			Error:      fmt.Sprintf("Database table '%s' does not exist. %s", k.Collection, setupGuide),
			Details:    err.Error(),
			Code:       store.UndefinedTableCode,
			SetupGuide: setupGuide,
		})
		return
	}
	hint := store.ErrorHint(err)
	if hint == "" {
		hint = "Check server logs for more details"
	}
	writeError(w, http.StatusInternalServerError, errorBody{
		Error:   message,
		Details: err.Error(),
		Code:    store.ErrorCode(err),
		Hint:    hint,
	})
}

// notify is best-effort: failures are logged and counted but never reach the caller.
func (h *Handler) notify(ctx context.Context, k *Kind, inserted store.Inserted, row store.Row) {
	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := h.notifier.SubmissionReceived(ctx, k.Label, inserted.ID, inserted.CreatedAt, row); err != nil {
		h.logger.Warn("submission notification failed", "error", err, "kind", k.Name, "id", inserted.ID)
		h.observeNotification(k.Name, "failed")
		return
	}
	h.observeNotification(k.Name, "sent")
}

func (h *Handler) observeSubmission(kind, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveSubmission(kind, outcome)
	}
}

func (h *Handler) observeNotification(kind, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveNotification(kind, outcome)
	}
}

func (h *Handler) observeLatency(kind, operation string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveLatency(kind, operation, time.Since(start).Seconds())
	}
}

func resolveVariant(k *Kind, payload map[string]any) *Kind {
	for _, v := range k.Variants {
		if !isBlank(payload[v.Key]) {
			return v.Kind
		}
	}
	return k
}

func decodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("intake: body must be a JSON object")
	}
	return body, nil
}

func parseListQuery(k *Kind, r *http.Request) (store.Query, error) {
	values := r.URL.Query()
	q := store.Query{Limit: k.DefaultLimit, Offset: 0}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return q, &ValidationError{Message: "limit must be a positive integer", Field: "limit"}
		}
		q.Limit = min(limit, maxListLimit)
	}
	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return q, &ValidationError{Message: "offset must be a non-negative integer", Field: "offset"}
		}
		q.Offset = offset
	}

	for param, column := range k.ListFilters {
		if v := values.Get(param); v != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string, len(k.ListFilters))
			}
			q.Filters[column] = v
		}
	}
	return q, nil
}
