package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cloudvelous/answerd/internal/embedding"
	"github.com/cloudvelous/answerd/internal/sqlc"
)

// ErrEmptyQuery indicates a search request with neither text nor embedding.
var ErrEmptyQuery = errors.New("search requires text or embedding")

// SearchRequest describes an explorative workflow search. Exactly one of
// Text or Embedding must be provided; Embedding takes precedence when both
// are set.
type SearchRequest struct {
	Text      string
	Embedding []float32

	TopK          int
	MinSimilarity float64

	SuccessfulOnly bool
	MinConfidence  float64
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}

// SearchResult is one matched workflow, enriched with the query text of the
// session it came from.
type SearchResult struct {
	WorkflowID int64     `json:"workflow_id"`
	SessionID  int64     `json:"session_id"`
	Summary    string    `json:"summary"`
	QueryText  string    `json:"query_text"`
	Similarity float64   `json:"similarity"`
	Confidence float64   `json:"confidence"`
	Successful bool      `json:"successful"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResponse carries the matches plus how many candidates were scored
// and how long scoring took.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	Candidates   int            `json:"candidates"`
	SearchTimeMs float64        `json:"search_time_ms"`
}

// Search scores stored workflows against the request in parallel and
// returns the top matches. Unlike FindSimilar, which serves the hot
// retrieval path through the vector index, Search supports arbitrary
// metadata filters and therefore scores candidates in process.
func (l *Learner) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	started := time.Now()

	queryVec, err := l.resolveQueryEmbedding(ctx, req)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK < 1 {
		topK = l.topK
	}

	candidates, err := l.querier.ListWorkflowVectors(ctx, sqlc.ListWorkflowVectorsParams{
		SuccessfulOnly: req.SuccessfulOnly,
		MinConfidence:  req.MinConfidence,
		CreatedAfter:   req.CreatedAfter,
		CreatedBefore:  req.CreatedBefore,
	})
	if err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}

	// Disjoint index writes per goroutine, no locking needed
	similarities := make([]float64, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, cand := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sim, err := embedding.Cosine(queryVec, cand.WorkflowEmbedding.Slice())
			if err != nil {
				return fmt.Errorf("scoring workflow %d: %w", cand.ID, err)
			}
			similarities[i] = sim
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(candidates))
	for i, cand := range candidates {
		if similarities[i] < req.MinSimilarity {
			continue
		}
		results = append(results, SearchResult{
			WorkflowID: cand.ID,
			SessionID:  cand.SessionID,
			Summary:    cand.ReasoningSummary,
			QueryText:  cand.QueryText,
			Similarity: similarities[i],
			Confidence: cand.ConfidenceScore,
			Successful: cand.IsSuccessful,
			CreatedAt:  cand.CreatedAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}

	return &SearchResponse{
		Results:      results,
		Candidates:   len(candidates),
		SearchTimeMs: float64(time.Since(started)) / float64(time.Millisecond),
	}, nil
}

// resolveQueryEmbedding turns the request into a query vector, embedding
// the text when no explicit vector was supplied.
func (l *Learner) resolveQueryEmbedding(ctx context.Context, req SearchRequest) ([]float32, error) {
	if len(req.Embedding) > 0 {
		if err := embedding.Validate(req.Embedding); err != nil {
			return nil, err
		}
		return req.Embedding, nil
	}
	if req.Text == "" {
		return nil, ErrEmptyQuery
	}
	return embedding.Text(ctx, l.embedder, req.Text)
}
