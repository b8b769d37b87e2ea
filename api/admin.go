package api

import (
	"encoding/json"
	"net/http"

	"github.com/cloudvelous/answerd/internal/feedback"
	"github.com/cloudvelous/answerd/internal/log"
)

// AdminHandler serves bulk feedback and manual weight overrides.
type AdminHandler struct {
	feedback FeedbackService
	logger   log.Logger
}

func NewAdminHandler(fbSvc FeedbackService, logger log.Logger) *AdminHandler {
	return &AdminHandler{feedback: fbSvc, logger: logger}
}

// RegisterRoutes registers the admin endpoints.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/feedback/bulk", h.handleBulkFeedback)
	mux.HandleFunc("POST /api/admin/chunks/weight", h.handleAdjustWeight)
}

type bulkFeedbackRequest struct {
	Items []feedbackRequest `json:"items"`
}

// handleBulkFeedback processes a batch of feedback submissions. Individual
// item failures are reported in the response body, not as an HTTP error;
// only batch-level problems (empty, oversized, broken transaction) fail the
// request.
func (h *AdminHandler) handleBulkFeedback(w http.ResponseWriter, r *http.Request) {
	var req bulkFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]feedback.Feedback, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, item.toFeedback())
	}

	result, err := h.feedback.SubmitBulkFeedback(r.Context(), items)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type adjustWeightRequest struct {
	ChunkID int64   `json:"chunk_id"`
	Weight  float64 `json:"weight"`
	Reason  string  `json:"reason,omitempty"`
}

func (h *AdminHandler) handleAdjustWeight(w http.ResponseWriter, r *http.Request) {
	var req adjustWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ChunkID < 1 {
		writeError(w, http.StatusBadRequest, "invalid_request", "chunk_id is required")
		return
	}

	change, err := h.feedback.AdjustChunkWeight(r.Context(), req.ChunkID, req.Weight, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}
