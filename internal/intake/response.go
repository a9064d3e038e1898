package intake

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
)

type createResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	SubmissionID string    `json:"submissionId"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

type listResponse struct {
	Success bool        `json:"success"`
	Data    []store.Row `json:"data"`
	Count   int64       `json:"count"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

type rowResponse struct {
	Success bool      `json:"success"`
	Data    store.Row `json:"data"`
}

type updateResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    store.Row `json:"data"`
}

type errorBody struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error"`
	Details     string   `json:"details,omitempty"`
	Code        string   `json:"code,omitempty"`
	Hint        string   `json:"hint,omitempty"`
	SetupGuide  string   `json:"setupGuide,omitempty"`
	ValidValues []string `json:"validValues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	body.Success = false
	writeJSON(w, status, body)
}

func writeValidationError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNothingToUpdate) {
		writeError(w, http.StatusBadRequest, errorBody{Error: "No fields to update"})
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, errorBody{Error: verr.Message, ValidValues: verr.ValidValues})
		return
	}
	writeError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}
