// Package workflow turns reasoning traces into searchable workflow
// embeddings and applies them back to retrieval.
//
// After a session receives positive feedback, its reasoning chain is
// summarized into a short text, embedded, and stored as a workflow vector.
// Future queries that resemble a stored workflow boost the chunks that
// proved useful in it.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/cloudvelous/answerd/internal/embedding"
	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/reasoning"
	"github.com/cloudvelous/answerd/internal/sqlc"
)

// Querier is the subset of generated queries the learner depends on.
type Querier interface {
	GetTrainingSession(ctx context.Context, id int64) (sqlc.TrainingSession, error)
	CreateWorkflowVector(ctx context.Context, arg sqlc.CreateWorkflowVectorParams) (sqlc.WorkflowVector, error)
	NearestSuccessfulWorkflows(ctx context.Context, arg sqlc.NearestSuccessfulWorkflowsParams) ([]sqlc.NearestSuccessfulWorkflowsRow, error)
	GetSessionLinks(ctx context.Context, sessionID int64) ([]sqlc.EmbeddingLink, error)
	ListWorkflowVectors(ctx context.Context, arg sqlc.ListWorkflowVectorsParams) ([]sqlc.ListWorkflowVectorsRow, error)
}

// Match is a stored workflow similar to the current query.
type Match struct {
	WorkflowID int64
	SessionID  int64
	Summary    string
	Similarity float64
	Confidence float64
}

// Learner creates and searches workflow embeddings.
type Learner struct {
	querier       Querier
	embedder      ai.Embedder
	logger        log.Logger
	topK          int
	minSimilarity float64
}

// New creates a Learner. topK and minSimilarity control similar-workflow
// lookup during retrieval boosting.
func New(querier Querier, embedder ai.Embedder, logger log.Logger, topK int, minSimilarity float64) *Learner {
	return &Learner{
		querier:       querier,
		embedder:      embedder,
		logger:        logger,
		topK:          topK,
		minSimilarity: minSimilarity,
	}
}

// Summarize renders a reasoning chain as the short text that gets embedded
// as the workflow vector. The output is deterministic: repositories and
// files appear in first-seen rank order, and the provider is read from the
// chain itself.
func Summarize(chain reasoning.Chain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", chain.Query)
	fmt.Fprintf(&b, "Retrieved %d chunks from:\n", len(chain.RetrievedChunks))

	repoOrder := make([]string, 0, len(chain.RetrievedChunks))
	repoFiles := make(map[string][]string)
	seenFile := make(map[string]bool)
	for _, c := range chain.RetrievedChunks {
		if _, ok := repoFiles[c.RepoName]; !ok {
			repoOrder = append(repoOrder, c.RepoName)
		}
		key := c.RepoName + "/" + c.FilePath
		if !seenFile[key] {
			seenFile[key] = true
			repoFiles[c.RepoName] = append(repoFiles[c.RepoName], c.FilePath)
		}
	}
	for _, repo := range repoOrder {
		fmt.Fprintf(&b, "- %s: %s\n", repo, strings.Join(repoFiles[repo], ", "))
	}

	fmt.Fprintf(&b, "Generated using %s\n", chain.LLMProvider)
	fmt.Fprintf(&b, "Total time: %.0fms (retrieval: %.0fms)", chain.TotalTimeMs, chain.RetrievalTimeMs)
	return b.String()
}

// CreateWorkflowEmbedding summarizes and embeds the session's reasoning
// chain and stores it as a workflow vector.
//
// A missing session is a soft no-op returning (nil, nil): feedback on a
// session that was never persisted should not fail the feedback itself.
// The querier is passed per call so the write can join whatever transaction
// the caller is running.
func (l *Learner) CreateWorkflowEmbedding(ctx context.Context, q Querier, sessionID int64, successful bool, confidence float64) (*sqlc.WorkflowVector, error) {
	session, err := q.GetTrainingSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.logger.Warn("skipping workflow embedding for missing session", "session_id", sessionID)
			return nil, nil
		}
		return nil, fmt.Errorf("loading session %d: %w", sessionID, err)
	}

	var chain reasoning.Chain
	if err := json.Unmarshal(session.ReasoningChain, &chain); err != nil {
		return nil, fmt.Errorf("decoding reasoning chain for session %d: %w", sessionID, err)
	}

	// Chains persisted before llm_provider was traced fall back to the
	// provider recorded on the session row.
	if chain.LLMProvider == "" {
		chain.LLMProvider = session.LlmProvider
	}
	summary := Summarize(chain)

	vec, err := embedding.Text(ctx, l.embedder, summary)
	if err != nil {
		return nil, fmt.Errorf("embedding workflow summary: %w", err)
	}

	wf, err := q.CreateWorkflowVector(ctx, sqlc.CreateWorkflowVectorParams{
		SessionID:         sessionID,
		ReasoningSummary:  summary,
		WorkflowEmbedding: pgvector.NewVector(vec),
		IsSuccessful:      successful,
		ConfidenceScore:   confidence,
	})
	if err != nil {
		return nil, fmt.Errorf("storing workflow vector: %w", err)
	}

	l.logger.Info("created workflow embedding",
		"session_id", sessionID,
		"workflow_id", wf.ID,
		"successful", successful,
		"confidence", confidence)
	return &wf, nil
}

// FindSimilar returns stored successful workflows within the configured
// similarity threshold of the query embedding. The cosine distance cutoff
// is derived here, in one place: distance = 1 - similarity.
func (l *Learner) FindSimilar(ctx context.Context, queryEmbedding []float32) ([]Match, error) {
	if err := embedding.Validate(queryEmbedding); err != nil {
		return nil, err
	}

	rows, err := l.querier.NearestSuccessfulWorkflows(ctx, sqlc.NearestSuccessfulWorkflowsParams{
		QueryEmbedding: pgvector.NewVector(queryEmbedding),
		MaxDistance:    1.0 - l.minSimilarity,
		ResultLimit:    int32(l.topK),
	})
	if err != nil {
		return nil, fmt.Errorf("searching workflows: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, Match{
			WorkflowID: row.ID,
			SessionID:  row.SessionID,
			Summary:    row.ReasoningSummary,
			Similarity: 1.0 - row.Distance,
			Confidence: row.ConfidenceScore,
		})
	}
	return matches, nil
}

// SuccessfulChunkIDs collects the chunk IDs retrieved by the given sessions,
// excluding chunks explicitly marked not useful. Links with no usefulness
// verdict count as useful. The result is deduplicated.
func (l *Learner) SuccessfulChunkIDs(ctx context.Context, sessionIDs []int64) (map[int64]bool, error) {
	ids := make(map[int64]bool)
	for _, sessionID := range sessionIDs {
		links, err := l.querier.GetSessionLinks(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("loading links for session %d: %w", sessionID, err)
		}
		for _, link := range links {
			if link.WasUseful != nil && !*link.WasUseful {
				continue
			}
			ids[link.ChunkID] = true
		}
	}
	return ids, nil
}
