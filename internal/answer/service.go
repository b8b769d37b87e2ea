// Package answer orchestrates the ask pipeline: embed the query, look up
// similar past workflows, run weighted retrieval with workflow boosting,
// generate the answer, and persist the session with its reasoning trace.
package answer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloudvelous/answerd/internal/embedding"
	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/reasoning"
	"github.com/cloudvelous/answerd/internal/retrieval"
	"github.com/cloudvelous/answerd/internal/sqlc"
	"github.com/cloudvelous/answerd/internal/workflow"
)

// Retriever ranks chunks for a query embedding.
type Retriever interface {
	Retrieve(ctx context.Context, queryEmbedding []float32, topK int, boostedIDs map[int64]bool) ([]retrieval.Result, error)
}

// WorkflowFinder locates similar past workflows and their useful chunks.
type WorkflowFinder interface {
	FindSimilar(ctx context.Context, queryEmbedding []float32) ([]workflow.Match, error)
	SuccessfulChunkIDs(ctx context.Context, sessionIDs []int64) (map[int64]bool, error)
}

// Tx is the transaction scope for persisting a completed session.
type Tx interface {
	CreateTrainingSession(ctx context.Context, arg sqlc.CreateTrainingSessionParams) (sqlc.TrainingSession, error)
	CreateEmbeddingLink(ctx context.Context, arg sqlc.CreateEmbeddingLinkParams) (sqlc.EmbeddingLink, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens persistence transactions.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// PgxStore implements Store on a pgx connection pool.
type PgxStore struct {
	pool *pgxpool.Pool
}

func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool}
}

func (s *PgxStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &pgxTx{Queries: sqlc.New(tx), tx: tx}, nil
}

type pgxTx struct {
	*sqlc.Queries
	tx pgx.Tx
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Config holds the pipeline knobs.
type Config struct {
	TopK            int
	Provider        string
	Model           string
	WorkflowEnabled bool
}

// Answer is the outcome of one ask request.
type Answer struct {
	SessionID int64
	Response  string
	Chunks    []retrieval.Result
	Chain     reasoning.Chain
}

// Service runs the ask pipeline.
type Service struct {
	embedder  ai.Embedder
	retriever Retriever
	finder    WorkflowFinder
	generator Generator
	store     Store
	logger    log.Logger
	cfg       Config
}

// New creates a Service. finder may be nil when workflow boosting is
// disabled.
func New(embedder ai.Embedder, retriever Retriever, finder WorkflowFinder, generator Generator, store Store, logger log.Logger, cfg Config) *Service {
	return &Service{
		embedder:  embedder,
		retriever: retriever,
		finder:    finder,
		generator: generator,
		store:     store,
		logger:    logger,
		cfg:       cfg,
	}
}

// Ask answers a query and persists the training session.
func (s *Service) Ask(ctx context.Context, query string) (*Answer, error) {
	tracer := reasoning.NewTracer(query)
	tracer.SetLLMInfo(s.cfg.Provider, s.cfg.Model)

	tracer.StartStep(reasoning.StepQueryEmbedding)
	queryVec, err := embedding.Text(ctx, s.embedder, query)
	tracer.EndStep(reasoning.StepQueryEmbedding, query, "")
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	boostedIDs := s.workflowBoost(ctx, tracer, queryVec)

	tracer.StartStep(reasoning.StepRetrieval)
	chunks, err := s.retriever.Retrieve(ctx, queryVec, s.cfg.TopK, boostedIDs)
	tracer.EndStep(reasoning.StepRetrieval, "", fmt.Sprintf("%d chunks", len(chunks)))
	if err != nil {
		return nil, fmt.Errorf("retrieving chunks: %w", err)
	}

	for _, c := range chunks {
		tracer.AddChunk(reasoning.ChunkTrace{
			ChunkID:        c.ChunkID,
			RepoName:       c.RepoName,
			FilePath:       c.FilePath,
			SectionTitle:   c.SectionTitle,
			ContentPreview: c.Content,
			Similarity:     c.Similarity,
			WeightedScore:  c.WeightedScore,
			AccuracyWeight: c.AccuracyWeight,
			Rank:           c.Rank,
			Boosted:        c.Boosted,
		})
	}

	prompt := buildPrompt(query, chunks)

	tracer.StartStep(reasoning.StepGeneration)
	response, err := s.generator.Generate(ctx, systemPrompt, prompt)
	tracer.EndStep(reasoning.StepGeneration, prompt, response)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	chain := tracer.Finalize()

	sessionID, err := s.persist(ctx, query, response, chain, chunks)
	if err != nil {
		return nil, err
	}

	s.logger.Info("answered query",
		"session_id", sessionID,
		"chunks", len(chunks),
		"boosted", len(boostedIDs),
		"total_ms", chain.TotalTimeMs)

	return &Answer{
		SessionID: sessionID,
		Response:  response,
		Chunks:    chunks,
		Chain:     chain,
	}, nil
}

// workflowBoost finds similar past workflows and collects the chunks that
// were useful in them. Failures degrade to unboosted retrieval; a broken
// workflow index must not take down answering.
func (s *Service) workflowBoost(ctx context.Context, tracer *reasoning.Tracer, queryVec []float32) map[int64]bool {
	if !s.cfg.WorkflowEnabled || s.finder == nil {
		return nil
	}

	tracer.StartStep(reasoning.StepWorkflowSearch)

	matches, err := s.finder.FindSimilar(ctx, queryVec)
	if err != nil {
		tracer.EndStep(reasoning.StepWorkflowSearch, "", "degraded")
		s.logger.Warn("workflow search failed, retrieval not boosted", "error", err)
		return nil
	}
	if len(matches) == 0 {
		tracer.EndStep(reasoning.StepWorkflowSearch, "", "no matches")
		return nil
	}

	sessionIDs := make([]int64, 0, len(matches))
	similar := make([]reasoning.SimilarWorkflow, 0, len(matches))
	for _, m := range matches {
		sessionIDs = append(sessionIDs, m.SessionID)
		similar = append(similar, reasoning.SimilarWorkflow{
			WorkflowID: m.WorkflowID,
			SessionID:  m.SessionID,
			Similarity: m.Similarity,
		})
	}

	boostedIDs, err := s.finder.SuccessfulChunkIDs(ctx, sessionIDs)
	if err != nil {
		tracer.EndStep(reasoning.StepWorkflowSearch, "", "degraded")
		s.logger.Warn("loading workflow chunks failed, retrieval not boosted", "error", err)
		return nil
	}

	ids := make([]int64, 0, len(boostedIDs))
	for id := range boostedIDs {
		ids = append(ids, id)
	}
	tracer.SetWorkflowContext(&reasoning.WorkflowContext{
		SimilarWorkflows: similar,
		BoostedChunkIDs:  ids,
	})
	tracer.EndStep(reasoning.StepWorkflowSearch, "", fmt.Sprintf("%d workflows, %d chunks", len(matches), len(boostedIDs)))

	return boostedIDs
}

// persist writes the session and its retrieval links in one transaction.
func (s *Service) persist(ctx context.Context, query, response string, chain reasoning.Chain, chunks []retrieval.Result) (int64, error) {
	chainJSON, err := json.Marshal(chain)
	if err != nil {
		return 0, fmt.Errorf("encoding reasoning chain: %w", err)
	}
	chunksJSON, err := json.Marshal(chain.RetrievedChunks)
	if err != nil {
		return 0, fmt.Errorf("encoding retrieved chunks: %w", err)
	}
	var contextJSON []byte
	if chain.WorkflowContext != nil {
		contextJSON, err = json.Marshal(chain.WorkflowContext)
		if err != nil {
			return 0, fmt.Errorf("encoding workflow context: %w", err)
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("persisting session: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	model := s.cfg.Model
	genTime := chain.GenerationTimeMs
	session, err := tx.CreateTrainingSession(ctx, sqlc.CreateTrainingSessionParams{
		QueryText:        query,
		ResponseText:     response,
		ReasoningChain:   chainJSON,
		RetrievedChunks:  chunksJSON,
		WorkflowContext:  contextJSON,
		LlmProvider:      s.cfg.Provider,
		LlmModel:         &model,
		GenerationTimeMs: &genTime,
	})
	if err != nil {
		return 0, fmt.Errorf("storing session: %w", err)
	}

	for _, c := range chunks {
		if _, err := tx.CreateEmbeddingLink(ctx, sqlc.CreateEmbeddingLinkParams{
			SessionID:       session.ID,
			ChunkID:         c.ChunkID,
			SimilarityScore: c.Similarity,
			RankPosition:    int32(c.Rank),
		}); err != nil {
			return 0, fmt.Errorf("storing link for chunk %d: %w", c.ChunkID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing session: %w", err)
	}
	return session.ID, nil
}
