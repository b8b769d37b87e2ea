package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cloudvelous/answerd/internal/embedding"
	"github.com/cloudvelous/answerd/internal/feedback"
	"github.com/cloudvelous/answerd/internal/workflow"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, ErrorResponse{Error: errMsg, Message: message})
}

// writeServiceError maps domain errors to HTTP status codes. Unrecognized
// errors become 500 with a generic body so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feedback.ErrSessionNotFound),
		errors.Is(err, feedback.ErrChunkNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, feedback.ErrValidation),
		errors.Is(err, embedding.ErrDimensionMismatch),
		errors.Is(err, workflow.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
