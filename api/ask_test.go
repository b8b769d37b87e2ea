package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvelous/answerd/internal/answer"
	"github.com/cloudvelous/answerd/internal/embedding"
	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/reasoning"
	"github.com/cloudvelous/answerd/internal/retrieval"
)

func TestAskHandler_Success(t *testing.T) {
	svc := &mockAskService{answer: &answer.Answer{
		SessionID: 42,
		Response:  "the answer",
		Chunks: []retrieval.Result{
			{ChunkID: 1, RepoName: "infra", FilePath: "docs/a.md", Similarity: 0.9, WeightedScore: 0.95, Rank: 1, Boosted: true},
		},
		Chain: reasoning.Chain{SchemaVersion: reasoning.SchemaVersion, Query: "what is alpha?"},
	}}
	h := NewAskHandler(svc, log.NewNop())

	body, _ := json.Marshal(askRequest{Query: "what is alpha?"})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAsk(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "what is alpha?", svc.lastQuery)

	var resp askResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.SessionID)
	assert.Equal(t, "the answer", resp.Response)
	require.Len(t, resp.Chunks, 1)
	assert.Equal(t, int64(1), resp.Chunks[0].ChunkID)
	assert.True(t, resp.Chunks[0].Boosted)
	assert.Equal(t, reasoning.SchemaVersion, resp.Reasoning.SchemaVersion)
}

func TestAskHandler_EmptyQuery(t *testing.T) {
	h := NewAskHandler(&mockAskService{}, log.NewNop())

	body, _ := json.Marshal(askRequest{Query: "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAsk(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query is required")
}

func TestAskHandler_InvalidJSON(t *testing.T) {
	h := NewAskHandler(&mockAskService{}, log.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	h.handleAsk(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskHandler_EmbeddingErrorMapsTo400(t *testing.T) {
	svc := &mockAskService{err: fmt.Errorf("embedding query: %w", embedding.ErrDimensionMismatch)}
	h := NewAskHandler(svc, log.NewNop())

	body, _ := json.Marshal(askRequest{Query: "q"})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAsk(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskHandler_InternalError(t *testing.T) {
	svc := &mockAskService{err: errors.New("model overloaded")}
	h := NewAskHandler(svc, log.NewNop())

	body, _ := json.Marshal(askRequest{Query: "q"})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAsk(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "model overloaded")
}
