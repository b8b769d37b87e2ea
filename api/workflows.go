package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/workflow"
)

// WorkflowHandler serves explorative workflow search.
type WorkflowHandler struct {
	searcher WorkflowSearcher
	logger   log.Logger
}

func NewWorkflowHandler(searcher WorkflowSearcher, logger log.Logger) *WorkflowHandler {
	return &WorkflowHandler{searcher: searcher, logger: logger}
}

// RegisterRoutes registers the workflow endpoints.
func (h *WorkflowHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workflows/search", h.handleSearch)
}

type workflowSearchRequest struct {
	Text      string    `json:"text,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`

	TopK          int     `json:"top_k,omitempty"`
	MinSimilarity float64 `json:"min_similarity,omitempty"`

	SuccessfulOnly bool       `json:"successful_only,omitempty"`
	MinConfidence  float64    `json:"min_confidence,omitempty"`
	CreatedAfter   *time.Time `json:"created_after,omitempty"`
	CreatedBefore  *time.Time `json:"created_before,omitempty"`
}

func (h *WorkflowHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req workflowSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := h.searcher.Search(r.Context(), workflow.SearchRequest{
		Text:           req.Text,
		Embedding:      req.Embedding,
		TopK:           req.TopK,
		MinSimilarity:  req.MinSimilarity,
		SuccessfulOnly: req.SuccessfulOnly,
		MinConfidence:  req.MinConfidence,
		CreatedAfter:   req.CreatedAfter,
		CreatedBefore:  req.CreatedBefore,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
