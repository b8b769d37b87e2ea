// Package feedback applies user feedback to the learning state: it records
// feedback, adjusts chunk accuracy weights, and triggers workflow embedding
// creation for confirmed-correct sessions.
//
// All mutations for one feedback submission happen in a single transaction.
// Bulk submissions wrap each item in a nested transaction (savepoint) so a
// bad item is rolled back alone while the rest of the batch proceeds.
package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/sqlc"
	"github.com/cloudvelous/answerd/internal/workflow"
)

// WorkflowLearner is the part of the workflow learner the engine calls.
type WorkflowLearner interface {
	CreateWorkflowEmbedding(ctx context.Context, q workflow.Querier, sessionID int64, successful bool, confidence float64) (*sqlc.WorkflowVector, error)
}

// Config holds the learning knobs.
type Config struct {
	// AdjustmentRate is added to or subtracted from a chunk's weight per
	// feedback signal.
	AdjustmentRate float64

	// MinWeight and MaxWeight clamp automatic adjustments and bound manual
	// overrides.
	MinWeight float64
	MaxWeight float64

	// MaxBulkSize caps the number of items in one bulk submission.
	MaxBulkSize int

	// WorkflowEmbeddingEnabled controls whether correct sessions produce
	// workflow vectors.
	WorkflowEmbeddingEnabled bool
}

// ChunkFeedback is a per-chunk usefulness verdict within a session.
type ChunkFeedback struct {
	ChunkID   int64
	WasUseful bool
}

// Feedback is one feedback submission for a session.
type Feedback struct {
	SessionID      int64
	FeedbackType   string
	IsCorrect      bool
	UserCorrection *string
	Notes          *string
	Chunks         []ChunkFeedback
}

// WeightChange reports a chunk weight adjustment.
type WeightChange struct {
	ChunkID   int64   `json:"chunk_id"`
	OldWeight float64 `json:"old_weight"`
	NewWeight float64 `json:"new_weight"`
}

// Result reports what one feedback submission changed.
type Result struct {
	SessionID       int64          `json:"session_id"`
	FeedbackID      int64          `json:"feedback_id"`
	WeightChanges   []WeightChange `json:"weight_changes"`
	WorkflowCreated bool           `json:"workflow_created"`
}

// BulkItemResult is the outcome of one item in a bulk submission.
type BulkItemResult struct {
	Index     int     `json:"index"`
	SessionID int64   `json:"session_id"`
	Succeeded bool    `json:"succeeded"`
	Error     string  `json:"error,omitempty"`
	Result    *Result `json:"result,omitempty"`
}

// BulkResult reports a bulk submission item by item.
type BulkResult struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

// Engine processes feedback submissions.
type Engine struct {
	store   Store
	learner WorkflowLearner
	logger  log.Logger
	cfg     Config
}

// New creates an Engine. learner may be nil when workflow embeddings are
// disabled entirely.
func New(store Store, learner WorkflowLearner, logger log.Logger, cfg Config) *Engine {
	return &Engine{
		store:   store,
		learner: learner,
		logger:  logger,
		cfg:     cfg,
	}
}

// SubmitFeedback records one feedback submission in a single transaction.
func (e *Engine) SubmitFeedback(ctx context.Context, fb Feedback) (*Result, error) {
	if err := e.validate(fb); err != nil {
		return nil, err
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	result, err := e.apply(ctx, tx, fb)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: committing feedback: %v", ErrDatabaseOperation, err)
	}
	return result, nil
}

// SubmitBulkFeedback records up to MaxBulkSize submissions in one outer
// transaction. Each item runs inside a savepoint: a failing item is rolled
// back and reported, without aborting the remaining items. The outer commit
// makes all successful items durable together.
func (e *Engine) SubmitBulkFeedback(ctx context.Context, items []Feedback) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty bulk submission", ErrValidation)
	}
	if len(items) > e.cfg.MaxBulkSize {
		return nil, fmt.Errorf("%w: bulk size %d exceeds limit %d", ErrValidation, len(items), e.cfg.MaxBulkSize)
	}

	outer, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
	}
	defer outer.Rollback(ctx) //nolint:errcheck // no-op after commit

	bulk := &BulkResult{Total: len(items)}
	for i, fb := range items {
		item := BulkItemResult{Index: i, SessionID: fb.SessionID}

		result, itemErr := e.applyInSavepoint(ctx, outer, fb)
		if itemErr != nil {
			item.Error = itemErr.Error()
			bulk.Failed++
			e.logger.Warn("bulk feedback item failed",
				"index", i, "session_id", fb.SessionID, "error", itemErr)
		} else {
			item.Succeeded = true
			item.Result = result
			bulk.Succeeded++
		}
		bulk.Items = append(bulk.Items, item)
	}

	if err := outer.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: committing bulk feedback: %v", ErrDatabaseOperation, err)
	}

	e.logger.Info("bulk feedback processed",
		"total", bulk.Total, "succeeded", bulk.Succeeded, "failed", bulk.Failed)
	return bulk, nil
}

// applyInSavepoint runs one bulk item inside a nested transaction.
func (e *Engine) applyInSavepoint(ctx context.Context, outer Tx, fb Feedback) (*Result, error) {
	if err := e.validate(fb); err != nil {
		return nil, err
	}

	sp, err := outer.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
	}

	result, err := e.apply(ctx, sp, fb)
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			e.logger.Error("savepoint rollback failed", "session_id", fb.SessionID, "error", rbErr)
		}
		return nil, err
	}

	if err := sp.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: releasing savepoint: %v", ErrDatabaseOperation, err)
	}
	return result, nil
}

// apply performs the feedback mutations on an open transaction scope.
func (e *Engine) apply(ctx context.Context, tx Tx, fb Feedback) (*Result, error) {
	if _, err := tx.GetTrainingSession(ctx, fb.SessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %d", ErrSessionNotFound, fb.SessionID)
		}
		return nil, fmt.Errorf("loading session %d: %w", fb.SessionID, err)
	}

	record, err := tx.CreateTrainingFeedback(ctx, sqlc.CreateTrainingFeedbackParams{
		SessionID:      fb.SessionID,
		FeedbackType:   fb.FeedbackType,
		IsCorrect:      fb.IsCorrect,
		UserCorrection: fb.UserCorrection,
		Notes:          fb.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("recording feedback: %w", err)
	}

	isCorrect := fb.IsCorrect
	if err := tx.SetSessionFeedback(ctx, sqlc.SetSessionFeedbackParams{
		ID:        fb.SessionID,
		IsCorrect: &isCorrect,
	}); err != nil {
		return nil, fmt.Errorf("marking session feedback: %w", err)
	}

	result := &Result{SessionID: fb.SessionID, FeedbackID: record.ID}

	for _, cf := range fb.Chunks {
		change, err := e.applyChunkFeedback(ctx, tx, fb, cf)
		if err != nil {
			return nil, err
		}
		if change != nil {
			result.WeightChanges = append(result.WeightChanges, *change)
		}
	}

	if fb.IsCorrect && e.cfg.WorkflowEmbeddingEnabled && e.learner != nil {
		// Best effort: a failed embedding must not void the feedback
		wf, err := e.learner.CreateWorkflowEmbedding(ctx, tx, fb.SessionID, true, 1.0)
		if err != nil {
			e.logger.Warn("workflow embedding failed", "session_id", fb.SessionID, "error", err)
		} else if wf != nil {
			result.WorkflowCreated = true
		}
	}

	return result, nil
}

// applyChunkFeedback records a usefulness verdict and adjusts the chunk's
// weight. Useful chunks in correct answers gain weight, not-useful chunks
// lose weight, and useful chunks in incorrect answers stay unchanged (the
// chunk was relevant even though the answer went wrong). A verdict for a
// chunk that was never retrieved in the session is skipped and returns
// (nil, nil).
func (e *Engine) applyChunkFeedback(ctx context.Context, tx Tx, fb Feedback, cf ChunkFeedback) (*WeightChange, error) {
	if _, err := tx.GetSessionLink(ctx, sqlc.GetSessionLinkParams{
		SessionID: fb.SessionID,
		ChunkID:   cf.ChunkID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The chunk was never retrieved in this session; ignore the verdict
			e.logger.Debug("skipping feedback for unretrieved chunk",
				"session_id", fb.SessionID, "chunk_id", cf.ChunkID)
			return nil, nil
		}
		return nil, fmt.Errorf("loading link for chunk %d: %w", cf.ChunkID, err)
	}

	wasUseful := cf.WasUseful
	if err := tx.SetLinkUsefulness(ctx, sqlc.SetLinkUsefulnessParams{
		SessionID: fb.SessionID,
		ChunkID:   cf.ChunkID,
		WasUseful: &wasUseful,
	}); err != nil {
		return nil, fmt.Errorf("marking chunk %d usefulness: %w", cf.ChunkID, err)
	}

	chunk, err := tx.GetKnowledgeChunk(ctx, cf.ChunkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chunk %d", ErrChunkNotFound, cf.ChunkID)
		}
		return nil, fmt.Errorf("loading chunk %d: %w", cf.ChunkID, err)
	}

	newWeight := chunk.AccuracyWeight
	switch {
	case cf.WasUseful && fb.IsCorrect:
		newWeight = min(chunk.AccuracyWeight+e.cfg.AdjustmentRate, e.cfg.MaxWeight)
	case !cf.WasUseful:
		newWeight = max(chunk.AccuracyWeight-e.cfg.AdjustmentRate, e.cfg.MinWeight)
	}

	if newWeight == chunk.AccuracyWeight {
		return nil, nil
	}

	if _, err := tx.UpdateChunkWeight(ctx, sqlc.UpdateChunkWeightParams{
		ID:             cf.ChunkID,
		AccuracyWeight: newWeight,
	}); err != nil {
		return nil, fmt.Errorf("updating weight for chunk %d: %w", cf.ChunkID, err)
	}

	return &WeightChange{ChunkID: cf.ChunkID, OldWeight: chunk.AccuracyWeight, NewWeight: newWeight}, nil
}

// AdjustChunkWeight sets a chunk's weight directly. Unlike feedback-driven
// adjustments, which clamp, an explicit weight outside the configured
// bounds is rejected. reason is free-form operator context; it is logged
// with the change and may be empty.
func (e *Engine) AdjustChunkWeight(ctx context.Context, chunkID int64, newWeight float64, reason string) (*WeightChange, error) {
	if newWeight < e.cfg.MinWeight || newWeight > e.cfg.MaxWeight {
		return nil, fmt.Errorf("%w: weight %.2f outside [%.2f, %.2f]",
			ErrValidation, newWeight, e.cfg.MinWeight, e.cfg.MaxWeight)
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	chunk, err := tx.GetKnowledgeChunk(ctx, chunkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chunk %d", ErrChunkNotFound, chunkID)
		}
		return nil, fmt.Errorf("loading chunk %d: %w", chunkID, err)
	}

	if _, err := tx.UpdateChunkWeight(ctx, sqlc.UpdateChunkWeightParams{
		ID:             chunkID,
		AccuracyWeight: newWeight,
	}); err != nil {
		return nil, fmt.Errorf("updating weight for chunk %d: %w", chunkID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: committing weight change: %v", ErrDatabaseOperation, err)
	}

	attrs := []any{"chunk_id", chunkID, "old_weight", chunk.AccuracyWeight, "new_weight", newWeight}
	if reason != "" {
		attrs = append(attrs, "reason", reason)
	}
	e.logger.Info("chunk weight adjusted", attrs...)
	return &WeightChange{ChunkID: chunkID, OldWeight: chunk.AccuracyWeight, NewWeight: newWeight}, nil
}

func (e *Engine) validate(fb Feedback) error {
	if fb.SessionID < 1 {
		return fmt.Errorf("%w: session_id is required", ErrValidation)
	}
	if fb.FeedbackType == "" {
		return fmt.Errorf("%w: feedback_type is required", ErrValidation)
	}
	return nil
}
