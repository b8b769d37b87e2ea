package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cloudvelous/answerd/internal/feedback"
	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/sqlc"
)

// TrainingHandler serves feedback submission and session inspection.
type TrainingHandler struct {
	feedback FeedbackService
	sessions SessionQuerier
	logger   log.Logger
}

func NewTrainingHandler(fbSvc FeedbackService, sessions SessionQuerier, logger log.Logger) *TrainingHandler {
	return &TrainingHandler{feedback: fbSvc, sessions: sessions, logger: logger}
}

// RegisterRoutes registers the training endpoints.
func (h *TrainingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/train", h.handleTrain)
	mux.HandleFunc("GET /api/sessions/{id}", h.handleGetSession)
}

type chunkFeedbackRequest struct {
	ChunkID   int64 `json:"chunk_id"`
	WasUseful bool  `json:"was_useful"`
}

type feedbackRequest struct {
	SessionID      int64                  `json:"session_id"`
	FeedbackType   string                 `json:"feedback_type"`
	IsCorrect      bool                   `json:"is_correct"`
	UserCorrection *string                `json:"user_correction,omitempty"`
	Notes          *string                `json:"notes,omitempty"`
	Chunks         []chunkFeedbackRequest `json:"chunks,omitempty"`
}

func (r feedbackRequest) toFeedback() feedback.Feedback {
	fb := feedback.Feedback{
		SessionID:      r.SessionID,
		FeedbackType:   r.FeedbackType,
		IsCorrect:      r.IsCorrect,
		UserCorrection: r.UserCorrection,
		Notes:          r.Notes,
	}
	for _, c := range r.Chunks {
		fb.Chunks = append(fb.Chunks, feedback.ChunkFeedback{
			ChunkID:   c.ChunkID,
			WasUseful: c.WasUseful,
		})
	}
	return fb
}

func (h *TrainingHandler) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.feedback.SubmitFeedback(r.Context(), req.toFeedback())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type sessionLinkResponse struct {
	ChunkID         int64   `json:"chunk_id"`
	SimilarityScore float64 `json:"similarity_score"`
	RankPosition    int32   `json:"rank_position"`
	WasUseful       *bool   `json:"was_useful"`
}

type sessionResponse struct {
	ID               int64                 `json:"id"`
	QueryText        string                `json:"query_text"`
	ResponseText     string                `json:"response_text"`
	ReasoningChain   json.RawMessage       `json:"reasoning_chain"`
	RetrievedChunks  json.RawMessage       `json:"retrieved_chunks"`
	WorkflowContext  json.RawMessage       `json:"workflow_context,omitempty"`
	LlmProvider      string                `json:"llm_provider"`
	LlmModel         *string               `json:"llm_model,omitempty"`
	GenerationTimeMs *float64              `json:"generation_time_ms,omitempty"`
	HasFeedback      bool                  `json:"has_feedback"`
	IsCorrect        *bool                 `json:"is_correct"`
	CreatedAt        time.Time             `json:"created_at"`
	Links            []sessionLinkResponse `json:"links"`
}

func (h *TrainingHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid session id")
		return
	}

	session, err := h.sessions.GetTrainingSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	links, err := h.sessions.GetSessionLinks(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session, links))
}

func toSessionResponse(s sqlc.TrainingSession, links []sqlc.EmbeddingLink) sessionResponse {
	resp := sessionResponse{
		ID:               s.ID,
		QueryText:        s.QueryText,
		ResponseText:     s.ResponseText,
		ReasoningChain:   s.ReasoningChain,
		RetrievedChunks:  s.RetrievedChunks,
		WorkflowContext:  s.WorkflowContext,
		LlmProvider:      s.LlmProvider,
		LlmModel:         s.LlmModel,
		GenerationTimeMs: s.GenerationTimeMs,
		HasFeedback:      s.HasFeedback,
		IsCorrect:        s.IsCorrect,
		CreatedAt:        s.CreatedAt,
		Links:            make([]sessionLinkResponse, 0, len(links)),
	}
	for _, l := range links {
		resp.Links = append(resp.Links, sessionLinkResponse{
			ChunkID:         l.ChunkID,
			SimilarityScore: l.SimilarityScore,
			RankPosition:    l.RankPosition,
			WasUseful:       l.WasUseful,
		})
	}
	return resp
}
