package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvelous/answerd/internal/feedback"
	"github.com/cloudvelous/answerd/internal/log"
)

func TestBulkFeedback_PartialFailureStays200(t *testing.T) {
	svc := &mockFeedbackService{bulkResult: &feedback.BulkResult{
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Items: []feedback.BulkItemResult{
			{Index: 0, SessionID: 1, Succeeded: true, Result: &feedback.Result{SessionID: 1}},
			{Index: 1, SessionID: 99, Error: "session not found: session 99"},
		},
	}}
	h := NewAdminHandler(svc, log.NewNop())

	body, _ := json.Marshal(bulkFeedbackRequest{Items: []feedbackRequest{
		{SessionID: 1, FeedbackType: "thumbs_up", IsCorrect: true},
		{SessionID: 99, FeedbackType: "thumbs_up", IsCorrect: true},
	}})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/feedback/bulk", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleBulkFeedback(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.lastItems, 2)

	var resp feedback.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].Succeeded)
	assert.Contains(t, resp.Items[1].Error, "session not found")
}

func TestBulkFeedback_BatchLevelValidationFails(t *testing.T) {
	svc := &mockFeedbackService{err: fmt.Errorf("%w: bulk size 150 exceeds limit 100", feedback.ErrValidation)}
	h := NewAdminHandler(svc, log.NewNop())

	body, _ := json.Marshal(bulkFeedbackRequest{Items: []feedbackRequest{{SessionID: 1, FeedbackType: "t"}}})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/feedback/bulk", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleBulkFeedback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds limit")
}

func TestAdjustWeight_Success(t *testing.T) {
	svc := &mockFeedbackService{change: &feedback.WeightChange{ChunkID: 3, OldWeight: 1.0, NewWeight: 1.5}}
	h := NewAdminHandler(svc, log.NewNop())

	body, _ := json.Marshal(adjustWeightRequest{ChunkID: 3, Weight: 1.5, Reason: "manual correction after doc rewrite"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/chunks/weight", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAdjustWeight(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), svc.lastChunkID)
	assert.InDelta(t, 1.5, svc.lastWeight, 1e-9)
	assert.Equal(t, "manual correction after doc rewrite", svc.lastReason)

	var resp feedback.WeightChange
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 1.5, resp.NewWeight, 1e-9)
}

func TestAdjustWeight_OutOfRange(t *testing.T) {
	svc := &mockFeedbackService{err: fmt.Errorf("%w: weight 2.50 outside [0.50, 2.00]", feedback.ErrValidation)}
	h := NewAdminHandler(svc, log.NewNop())

	body, _ := json.Marshal(adjustWeightRequest{ChunkID: 3, Weight: 2.5})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/chunks/weight", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAdjustWeight(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustWeight_ChunkNotFound(t *testing.T) {
	svc := &mockFeedbackService{err: fmt.Errorf("%w: chunk 404", feedback.ErrChunkNotFound)}
	h := NewAdminHandler(svc, log.NewNop())

	body, _ := json.Marshal(adjustWeightRequest{ChunkID: 404, Weight: 1.0})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/chunks/weight", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAdjustWeight(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdjustWeight_MissingChunkID(t *testing.T) {
	h := NewAdminHandler(&mockFeedbackService{}, log.NewNop())

	body, _ := json.Marshal(adjustWeightRequest{Weight: 1.0})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/chunks/weight", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleAdjustWeight(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "chunk_id is required")
}
