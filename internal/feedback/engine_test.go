package feedback

import (
	"context"
	"errors"
	"maps"
	"slices"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/sqlc"
	"github.com/cloudvelous/answerd/internal/workflow"
)

// ============================================================================
// In-memory fake with savepoint semantics
// ============================================================================

type linkKey struct {
	sessionID int64
	chunkID   int64
}

// fakeState is the mutable database content. Transactions operate on a
// clone and publish it on commit, which models savepoint isolation.
type fakeState struct {
	sessions       map[int64]sqlc.TrainingSession
	chunks         map[int64]sqlc.KnowledgeChunk
	links          map[linkKey]sqlc.EmbeddingLink
	feedback       []sqlc.TrainingFeedback
	workflows      []sqlc.WorkflowVector
	nextFeedbackID int64
	nextWorkflowID int64
}

func newFakeState() *fakeState {
	return &fakeState{
		sessions:       make(map[int64]sqlc.TrainingSession),
		chunks:         make(map[int64]sqlc.KnowledgeChunk),
		links:          make(map[linkKey]sqlc.EmbeddingLink),
		nextFeedbackID: 1,
		nextWorkflowID: 1,
	}
}

func (s *fakeState) clone() *fakeState {
	return &fakeState{
		sessions:       maps.Clone(s.sessions),
		chunks:         maps.Clone(s.chunks),
		links:          maps.Clone(s.links),
		feedback:       slices.Clone(s.feedback),
		workflows:      slices.Clone(s.workflows),
		nextFeedbackID: s.nextFeedbackID,
		nextWorkflowID: s.nextWorkflowID,
	}
}

type fakeStore struct {
	state     *fakeState
	beginErr  error
	commitErr error // injected into the top-level transaction
}

func (s *fakeStore) Begin(_ context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return &fakeTx{store: s, state: s.state.clone(), commitErr: s.commitErr}, nil
}

type fakeTx struct {
	store     *fakeStore
	parent    *fakeTx
	state     *fakeState
	commitErr error
}

func (t *fakeTx) Begin(_ context.Context) (Tx, error) {
	return &fakeTx{store: t.store, parent: t, state: t.state.clone()}, nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	if t.parent != nil {
		t.parent.state = t.state
	} else {
		t.store.state = t.state
	}
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	return nil
}

func (t *fakeTx) GetTrainingSession(_ context.Context, id int64) (sqlc.TrainingSession, error) {
	s, ok := t.state.sessions[id]
	if !ok {
		return sqlc.TrainingSession{}, pgx.ErrNoRows
	}
	return s, nil
}

func (t *fakeTx) SetSessionFeedback(_ context.Context, arg sqlc.SetSessionFeedbackParams) error {
	s, ok := t.state.sessions[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	s.HasFeedback = true
	s.IsCorrect = arg.IsCorrect
	t.state.sessions[arg.ID] = s
	return nil
}

func (t *fakeTx) CreateTrainingFeedback(_ context.Context, arg sqlc.CreateTrainingFeedbackParams) (sqlc.TrainingFeedback, error) {
	fb := sqlc.TrainingFeedback{
		ID:             t.state.nextFeedbackID,
		SessionID:      arg.SessionID,
		FeedbackType:   arg.FeedbackType,
		IsCorrect:      arg.IsCorrect,
		UserCorrection: arg.UserCorrection,
		Notes:          arg.Notes,
	}
	t.state.nextFeedbackID++
	t.state.feedback = append(t.state.feedback, fb)
	return fb, nil
}

func (t *fakeTx) GetSessionLink(_ context.Context, arg sqlc.GetSessionLinkParams) (sqlc.EmbeddingLink, error) {
	l, ok := t.state.links[linkKey{arg.SessionID, arg.ChunkID}]
	if !ok {
		return sqlc.EmbeddingLink{}, pgx.ErrNoRows
	}
	return l, nil
}

func (t *fakeTx) SetLinkUsefulness(_ context.Context, arg sqlc.SetLinkUsefulnessParams) error {
	key := linkKey{arg.SessionID, arg.ChunkID}
	l, ok := t.state.links[key]
	if !ok {
		return pgx.ErrNoRows
	}
	l.WasUseful = arg.WasUseful
	t.state.links[key] = l
	return nil
}

func (t *fakeTx) GetSessionLinks(_ context.Context, sessionID int64) ([]sqlc.EmbeddingLink, error) {
	var links []sqlc.EmbeddingLink
	for key, l := range t.state.links {
		if key.sessionID == sessionID {
			links = append(links, l)
		}
	}
	return links, nil
}

func (t *fakeTx) GetKnowledgeChunk(_ context.Context, id int64) (sqlc.KnowledgeChunk, error) {
	c, ok := t.state.chunks[id]
	if !ok {
		return sqlc.KnowledgeChunk{}, pgx.ErrNoRows
	}
	return c, nil
}

func (t *fakeTx) UpdateChunkWeight(_ context.Context, arg sqlc.UpdateChunkWeightParams) (sqlc.KnowledgeChunk, error) {
	c, ok := t.state.chunks[arg.ID]
	if !ok {
		return sqlc.KnowledgeChunk{}, pgx.ErrNoRows
	}
	c.AccuracyWeight = arg.AccuracyWeight
	t.state.chunks[arg.ID] = c
	return c, nil
}

func (t *fakeTx) CreateWorkflowVector(_ context.Context, arg sqlc.CreateWorkflowVectorParams) (sqlc.WorkflowVector, error) {
	wf := sqlc.WorkflowVector{
		ID:                t.state.nextWorkflowID,
		SessionID:         arg.SessionID,
		ReasoningSummary:  arg.ReasoningSummary,
		WorkflowEmbedding: arg.WorkflowEmbedding,
		IsSuccessful:      arg.IsSuccessful,
		ConfidenceScore:   arg.ConfidenceScore,
	}
	t.state.nextWorkflowID++
	t.state.workflows = append(t.state.workflows, wf)
	return wf, nil
}

func (t *fakeTx) NearestSuccessfulWorkflows(_ context.Context, _ sqlc.NearestSuccessfulWorkflowsParams) ([]sqlc.NearestSuccessfulWorkflowsRow, error) {
	return nil, nil
}

func (t *fakeTx) ListWorkflowVectors(_ context.Context, _ sqlc.ListWorkflowVectorsParams) ([]sqlc.ListWorkflowVectorsRow, error) {
	return nil, nil
}

// fakeLearner writes a workflow vector through the transaction it is given,
// so tests can observe savepoint behavior.
type fakeLearner struct {
	calls int
	err   error
}

func (l *fakeLearner) CreateWorkflowEmbedding(ctx context.Context, q workflow.Querier, sessionID int64, successful bool, confidence float64) (*sqlc.WorkflowVector, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	wf, err := q.CreateWorkflowVector(ctx, sqlc.CreateWorkflowVectorParams{
		SessionID:       sessionID,
		IsSuccessful:    successful,
		ConfidenceScore: confidence,
	})
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// ============================================================================
// Helpers
// ============================================================================

func defaultConfig() Config {
	return Config{
		AdjustmentRate:           0.1,
		MinWeight:                0.5,
		MaxWeight:                2.0,
		MaxBulkSize:              100,
		WorkflowEmbeddingEnabled: true,
	}
}

// newFixture returns a store seeded with one session (ID 1) that retrieved
// chunks 1 and 2.
func newFixture() *fakeStore {
	state := newFakeState()
	state.sessions[1] = sqlc.TrainingSession{ID: 1, QueryText: "q", ReasoningChain: []byte(`{}`), LlmProvider: "gemini"}
	state.chunks[1] = sqlc.KnowledgeChunk{ID: 1, AccuracyWeight: 1.0}
	state.chunks[2] = sqlc.KnowledgeChunk{ID: 2, AccuracyWeight: 1.0}
	state.links[linkKey{1, 1}] = sqlc.EmbeddingLink{SessionID: 1, ChunkID: 1, RankPosition: 1}
	state.links[linkKey{1, 2}] = sqlc.EmbeddingLink{SessionID: 1, ChunkID: 2, RankPosition: 2}
	return &fakeStore{state: state}
}

func baseFeedback(sessionID int64, correct bool, chunks ...ChunkFeedback) Feedback {
	return Feedback{
		SessionID:    sessionID,
		FeedbackType: "answer_quality",
		IsCorrect:    correct,
		Chunks:       chunks,
	}
}

// ============================================================================
// SubmitFeedback Tests
// ============================================================================

func TestSubmitFeedbackUsefulAndCorrectIncreasesWeight(t *testing.T) {
	store := newFixture()
	engine := New(store, &fakeLearner{}, log.NewNop(), defaultConfig())

	result, err := engine.SubmitFeedback(context.Background(),
		baseFeedback(1, true, ChunkFeedback{ChunkID: 1, WasUseful: true}))
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}

	if got := store.state.chunks[1].AccuracyWeight; got != 1.1 {
		t.Errorf("chunk weight = %v, want 1.1", got)
	}
	if len(result.WeightChanges) != 1 {
		t.Fatalf("got %d weight changes, want 1", len(result.WeightChanges))
	}
	if wc := result.WeightChanges[0]; wc.OldWeight != 1.0 || wc.NewWeight != 1.1 {
		t.Errorf("weight change = %+v", wc)
	}

	// Session marked, link verdict recorded, feedback stored
	session := store.state.sessions[1]
	if !session.HasFeedback || session.IsCorrect == nil || !*session.IsCorrect {
		t.Errorf("session not marked: %+v", session)
	}
	link := store.state.links[linkKey{1, 1}]
	if link.WasUseful == nil || !*link.WasUseful {
		t.Errorf("link verdict not recorded: %+v", link)
	}
	if len(store.state.feedback) != 1 {
		t.Errorf("got %d feedback records, want 1", len(store.state.feedback))
	}
}

func TestSubmitFeedbackWeightClampedAtMax(t *testing.T) {
	store := newFixture()
	chunk := store.state.chunks[1]
	chunk.AccuracyWeight = 1.95
	store.state.chunks[1] = chunk

	engine := New(store, nil, log.NewNop(), defaultConfig())

	_, err := engine.SubmitFeedback(context.Background(),
		baseFeedback(1, true, ChunkFeedback{ChunkID: 1, WasUseful: true}))
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}
	if got := store.state.chunks[1].AccuracyWeight; got != 2.0 {
		t.Errorf("chunk weight = %v, want clamped 2.0", got)
	}
}

func TestSubmitFeedbackNotUsefulDecreasesWeight(t *testing.T) {
	store := newFixture()
	engine := New(store, nil, log.NewNop(), defaultConfig())

	// Answer correctness does not matter for a not-useful chunk
	result, err := engine.SubmitFeedback(context.Background(),
		baseFeedback(1, true, ChunkFeedback{ChunkID: 1, WasUseful: false}))
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}
	if got := store.state.chunks[1].AccuracyWeight; got != 0.9 {
		t.Errorf("chunk weight = %v, want 0.9", got)
	}
	if len(result.WeightChanges) != 1 {
		t.Errorf("got %d weight changes, want 1", len(result.WeightChanges))
	}
}

func TestSubmitFeedbackWeightClampedAtMin(t *testing.T) {
	store := newFixture()
	chunk := store.state.chunks[1]
	chunk.AccuracyWeight = 0.55
	store.state.chunks[1] = chunk

	engine := New(store, nil, log.NewNop(), defaultConfig())

	_, err := engine.SubmitFeedback(context.Background(),
		baseFeedback(1, false, ChunkFeedback{ChunkID: 1, WasUseful: false}))
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}
	if got := store.state.chunks[1].AccuracyWeight; got != 0.5 {
		t.Errorf("chunk weight = %v, want clamped 0.5", got)
	}
}

func TestSubmitFeedbackUsefulButIncorrectLeavesWeight(t *testing.T) {
	store := newFixture()
	engine := New(store, nil, log.NewNop(), defaultConfig())

	result, err := engine.SubmitFeedback(context.Background(),
		baseFeedback(1, false, ChunkFeedback{ChunkID: 1, WasUseful: true}))
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}

	if got := store.state.chunks[1].AccuracyWeight; got != 1.0 {
		t.Errorf("chunk weight = %v, want unchanged 1.0", got)
	}
	if len(result.WeightChanges) != 0 {
		t.Errorf("got %d weight changes, want 0", len(result.WeightChanges))
	}

	// Usefulness verdict is still recorded
	link := store.state.links[linkKey{1, 1}]
	if link.WasUseful == nil || !*link.WasUseful {
		t.Errorf("link verdict not recorded: %+v", link)
	}
}

func TestSubmitFeedbackSessionNotFound(t *testing.T) {
	store := newFixture()
	engine := New(store, nil, log.NewNop(), defaultConfig())

	_, err := engine.SubmitFeedback(context.Background(), baseFeedback(999, true))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("SubmitFeedback() error = %v, want ErrSessionNotFound", err)
	}
	if len(store.state.feedback) != 0 {
		t.Error("feedback persisted despite missing session")
	}
}

func TestSubmitFeedbackUnretrievedChunkIsSkipped(t *testing.T) {
	store := newFixture()
	engine := New(store, nil, log.NewNop(), defaultConfig())

	// Chunk 999 was never retrieved in session 1; its verdict is dropped
	// without failing the submission.
	result, err := engine.SubmitFeedback(context.Background(),
		baseFeedback(1, true,
			ChunkFeedback{ChunkID: 999, WasUseful: true},
			ChunkFeedback{ChunkID: 1, WasUseful: true}))
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}

	if len(result.WeightChanges) != 1 {
		t.Fatalf("got %d weight changes, want 1", len(result.WeightChanges))
	}
	if result.WeightChanges[0].ChunkID != 1 {
		t.Errorf("weight change for chunk %d, want 1", result.WeightChanges[0].ChunkID)
	}
	if got := store.state.chunks[1].AccuracyWeight; got != 1.1 {
		t.Errorf("chunk 1 weight = %v, want 1.1", got)
	}
	if !store.state.sessions[1].HasFeedback {
		t.Error("session not marked")
	}
	if len(store.state.feedback) != 1 {
		t.Errorf("got %d feedback records, want 1", len(store.state.feedback))
	}
}

func TestSubmitFeedbackLinkedChunkRowMissingFails(t *testing.T) {
	store := newFixture()
	delete(store.state.chunks, 2) // link for session 1 still points at it
	engine := New(store, nil, log.NewNop(), defaultConfig())

	_, err := engine.SubmitFeedback(context.Background(),
		baseFeedback(1, true, ChunkFeedback{ChunkID: 2, WasUseful: true}))
	if !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("SubmitFeedback() error = %v, want ErrChunkNotFound", err)
	}
	if store.state.sessions[1].HasFeedback {
		t.Error("session marked despite rollback")
	}
	if len(store.state.feedback) != 0 {
		t.Error("feedback record persisted despite rollback")
	}
}

func TestSubmitFeedbackValidation(t *testing.T) {
	engine := New(newFixture(), nil, log.NewNop(), defaultConfig())

	tests := []struct {
		name string
		fb   Feedback
	}{
		{name: "missing session id", fb: Feedback{FeedbackType: "answer_quality"}},
		{name: "missing feedback type", fb: Feedback{SessionID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.SubmitFeedback(context.Background(), tt.fb)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("SubmitFeedback() error = %v, want ErrValidation", err)
			}
		})
	}
}

// ============================================================================
// Workflow embedding trigger tests
// ============================================================================

func TestSubmitFeedbackCreatesWorkflowEmbedding(t *testing.T) {
	store := newFixture()
	learner := &fakeLearner{}
	engine := New(store, learner, log.NewNop(), defaultConfig())

	result, err := engine.SubmitFeedback(context.Background(), baseFeedback(1, true))
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}
	if learner.calls != 1 {
		t.Errorf("learner calls = %d, want 1", learner.calls)
	}
	if !result.WorkflowCreated {
		t.Error("WorkflowCreated = false, want true")
	}
	if len(store.state.workflows) != 1 {
		t.Errorf("got %d workflow vectors, want 1", len(store.state.workflows))
	}
}

func TestSubmitFeedbackIncorrectSkipsWorkflow(t *testing.T) {
	store := newFixture()
	learner := &fakeLearner{}
	engine := New(store, learner, log.NewNop(), defaultConfig())

	if _, err := engine.SubmitFeedback(context.Background(), baseFeedback(1, false)); err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}
	if learner.calls != 0 {
		t.Errorf("learner calls = %d, want 0 for incorrect answer", learner.calls)
	}
}

func TestSubmitFeedbackWorkflowDisabled(t *testing.T) {
	store := newFixture()
	learner := &fakeLearner{}
	cfg := defaultConfig()
	cfg.WorkflowEmbeddingEnabled = false
	engine := New(store, learner, log.NewNop(), cfg)

	if _, err := engine.SubmitFeedback(context.Background(), baseFeedback(1, true)); err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}
	if learner.calls != 0 {
		t.Errorf("learner calls = %d, want 0 when disabled", learner.calls)
	}
}

func TestSubmitFeedbackWorkflowFailureIsBestEffort(t *testing.T) {
	store := newFixture()
	learner := &fakeLearner{err: errors.New("embedder down")}
	engine := New(store, learner, log.NewNop(), defaultConfig())

	result, err := engine.SubmitFeedback(context.Background(), baseFeedback(1, true))
	if err != nil {
		t.Fatalf("feedback must survive a workflow embedding failure, got: %v", err)
	}
	if result.WorkflowCreated {
		t.Error("WorkflowCreated = true despite learner failure")
	}
	if !store.state.sessions[1].HasFeedback {
		t.Error("feedback not persisted")
	}
}

// ============================================================================
// SubmitBulkFeedback Tests
// ============================================================================

func TestSubmitBulkFeedbackSizeLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxBulkSize = 2
	engine := New(newFixture(), nil, log.NewNop(), cfg)

	items := []Feedback{baseFeedback(1, true), baseFeedback(1, true), baseFeedback(1, true)}
	_, err := engine.SubmitBulkFeedback(context.Background(), items)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("SubmitBulkFeedback() error = %v, want ErrValidation", err)
	}
}

func TestSubmitBulkFeedbackEmpty(t *testing.T) {
	engine := New(newFixture(), nil, log.NewNop(), defaultConfig())

	_, err := engine.SubmitBulkFeedback(context.Background(), nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("SubmitBulkFeedback() error = %v, want ErrValidation", err)
	}
}

func TestSubmitBulkFeedbackIsolatesFailedItems(t *testing.T) {
	store := newFixture()
	state := store.state
	state.sessions[2] = sqlc.TrainingSession{ID: 2, QueryText: "q2", ReasoningChain: []byte(`{}`), LlmProvider: "gemini"}
	state.links[linkKey{2, 2}] = sqlc.EmbeddingLink{SessionID: 2, ChunkID: 2, RankPosition: 1}

	engine := New(store, nil, log.NewNop(), defaultConfig())

	items := []Feedback{
		baseFeedback(1, true, ChunkFeedback{ChunkID: 1, WasUseful: true}),
		baseFeedback(999, true), // missing session, must fail alone
		baseFeedback(2, true, ChunkFeedback{ChunkID: 2, WasUseful: true}),
	}

	bulk, err := engine.SubmitBulkFeedback(context.Background(), items)
	if err != nil {
		t.Fatalf("SubmitBulkFeedback() error: %v", err)
	}

	if bulk.Total != 3 || bulk.Succeeded != 2 || bulk.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", bulk.Total, bulk.Succeeded, bulk.Failed)
	}
	if bulk.Items[1].Succeeded || bulk.Items[1].Error == "" {
		t.Errorf("item 1 = %+v, want failure with error", bulk.Items[1])
	}

	// Successful items are durable, the failed one left no trace
	if got := store.state.chunks[1].AccuracyWeight; got != 1.1 {
		t.Errorf("chunk 1 weight = %v, want 1.1", got)
	}
	if got := store.state.chunks[2].AccuracyWeight; got != 1.1 {
		t.Errorf("chunk 2 weight = %v, want 1.1", got)
	}
	if len(store.state.feedback) != 2 {
		t.Errorf("got %d feedback records, want 2", len(store.state.feedback))
	}
}

func TestSubmitBulkFeedbackOuterCommitFailure(t *testing.T) {
	store := newFixture()
	store.commitErr = errors.New("connection reset")
	engine := New(store, nil, log.NewNop(), defaultConfig())

	_, err := engine.SubmitBulkFeedback(context.Background(), []Feedback{baseFeedback(1, true)})
	if !errors.Is(err, ErrDatabaseOperation) {
		t.Errorf("SubmitBulkFeedback() error = %v, want ErrDatabaseOperation", err)
	}

	// Nothing published
	if store.state.sessions[1].HasFeedback {
		t.Error("state published despite commit failure")
	}
}

// ============================================================================
// AdjustChunkWeight Tests
// ============================================================================

func TestAdjustChunkWeight(t *testing.T) {
	store := newFixture()
	engine := New(store, nil, log.NewNop(), defaultConfig())

	change, err := engine.AdjustChunkWeight(context.Background(), 1, 1.5, "docs rewritten")
	if err != nil {
		t.Fatalf("AdjustChunkWeight() error: %v", err)
	}
	if change.OldWeight != 1.0 || change.NewWeight != 1.5 {
		t.Errorf("change = %+v, want 1.0 -> 1.5", change)
	}
	if got := store.state.chunks[1].AccuracyWeight; got != 1.5 {
		t.Errorf("chunk weight = %v, want 1.5", got)
	}
}

func TestAdjustChunkWeightOutOfRange(t *testing.T) {
	engine := New(newFixture(), nil, log.NewNop(), defaultConfig())

	// Explicit adjustments reject out-of-range weights instead of clamping
	for _, weight := range []float64{0.4, 2.1} {
		_, err := engine.AdjustChunkWeight(context.Background(), 1, weight, "")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("AdjustChunkWeight(%v) error = %v, want ErrValidation", weight, err)
		}
	}

	// Boundary values are accepted
	for _, weight := range []float64{0.5, 2.0} {
		if _, err := engine.AdjustChunkWeight(context.Background(), 1, weight, ""); err != nil {
			t.Errorf("AdjustChunkWeight(%v) unexpected error: %v", weight, err)
		}
	}
}

func TestAdjustChunkWeightMissingChunk(t *testing.T) {
	engine := New(newFixture(), nil, log.NewNop(), defaultConfig())

	_, err := engine.AdjustChunkWeight(context.Background(), 999, 1.5, "")
	if !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("AdjustChunkWeight() error = %v, want ErrChunkNotFound", err)
	}
}
