package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/reasoning"
	"github.com/cloudvelous/answerd/internal/retrieval"
)

// AskHandler serves the ask endpoint.
type AskHandler struct {
	svc    AskService
	logger log.Logger
}

func NewAskHandler(svc AskService, logger log.Logger) *AskHandler {
	return &AskHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the ask endpoint.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.handleAsk)
}

type askRequest struct {
	Query string `json:"query"`
}

type askChunk struct {
	ChunkID       int64   `json:"chunk_id"`
	RepoName      string  `json:"repo_name"`
	FilePath      string  `json:"file_path"`
	SectionTitle  string  `json:"section_title,omitempty"`
	Content       string  `json:"content"`
	Similarity    float64 `json:"similarity"`
	WeightedScore float64 `json:"weighted_score"`
	Rank          int     `json:"rank"`
	Boosted       bool    `json:"boosted,omitempty"`
}

type askResponse struct {
	SessionID int64           `json:"session_id"`
	Response  string          `json:"response"`
	Chunks    []askChunk      `json:"chunks"`
	Reasoning reasoning.Chain `json:"reasoning"`
}

func (h *AskHandler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		SessionID: answer.SessionID,
		Response:  answer.Response,
		Chunks:    toAskChunks(answer.Chunks),
		Reasoning: answer.Chain,
	})
}

func toAskChunks(results []retrieval.Result) []askChunk {
	chunks := make([]askChunk, 0, len(results))
	for _, c := range results {
		chunks = append(chunks, askChunk{
			ChunkID:       c.ChunkID,
			RepoName:      c.RepoName,
			FilePath:      c.FilePath,
			SectionTitle:  c.SectionTitle,
			Content:       c.Content,
			Similarity:    c.Similarity,
			WeightedScore: c.WeightedScore,
			Rank:          c.Rank,
			Boosted:       c.Boosted,
		})
	}
	return chunks
}
