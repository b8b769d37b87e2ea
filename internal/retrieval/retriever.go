// Package retrieval implements weighted chunk retrieval.
//
// Ranking happens in two stages: the database returns candidates ordered by
// raw cosine similarity, then candidates are re-scored in memory as
// similarity * accuracy_weight, with an extra boost for chunks that proved
// useful in similar past workflows. Over-fetching (2x the requested top-k)
// gives the re-scoring room to promote down-weighted candidates.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/pgvector/pgvector-go"

	"github.com/cloudvelous/answerd/internal/embedding"
	"github.com/cloudvelous/answerd/internal/log"
	"github.com/cloudvelous/answerd/internal/sqlc"
)

// Querier is the subset of generated queries the retriever depends on.
type Querier interface {
	NearestChunks(ctx context.Context, arg sqlc.NearestChunksParams) ([]sqlc.NearestChunksRow, error)
}

// Result is one chunk in the final ranking. Similarity is the raw cosine
// similarity as returned by the database; WeightedScore is what the ranking
// was ordered by.
type Result struct {
	ChunkID        int64
	RepoName       string
	FilePath       string
	SectionTitle   string
	Content        string
	Similarity     float64
	AccuracyWeight float64
	WeightedScore  float64
	Rank           int
	Boosted        bool
}

// Retriever ranks knowledge chunks for a query embedding.
type Retriever struct {
	querier     Querier
	logger      log.Logger
	boostFactor float64
}

// New creates a Retriever. boostFactor multiplies the weighted score of
// chunks found useful in similar past workflows; 1.0 disables boosting.
func New(querier Querier, logger log.Logger, boostFactor float64) *Retriever {
	return &Retriever{
		querier:     querier,
		logger:      logger,
		boostFactor: boostFactor,
	}
}

// Retrieve returns the topK highest weighted chunks for the query embedding.
// boostedIDs contains chunk IDs to multiply by the boost factor; nil means
// no boosting. Ranks are dense, 1-based, and assigned after re-scoring.
func (r *Retriever) Retrieve(ctx context.Context, queryEmbedding []float32, topK int, boostedIDs map[int64]bool) ([]Result, error) {
	if err := embedding.Validate(queryEmbedding); err != nil {
		return nil, err
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be >= 1, got %d", topK)
	}

	// Over-fetch so re-weighting can promote candidates beyond raw topK
	rows, err := r.querier.NearestChunks(ctx, sqlc.NearestChunksParams{
		QueryEmbedding: pgvector.NewVector(queryEmbedding),
		ResultLimit:    int32(topK * 2),
	})
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		res := Result{
			ChunkID:        row.ID,
			RepoName:       row.RepoName,
			FilePath:       row.FilePath,
			Content:        row.Content,
			Similarity:     row.Similarity,
			AccuracyWeight: row.AccuracyWeight,
		}
		if row.SectionTitle != nil {
			res.SectionTitle = *row.SectionTitle
		}

		res.WeightedScore = row.Similarity * row.AccuracyWeight
		if boostedIDs[row.ID] {
			res.WeightedScore *= r.boostFactor
			res.Boosted = true
		}
		results = append(results, res)
	}

	// Stable sort keeps database similarity order for equal weighted scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].WeightedScore > results[j].WeightedScore
	})

	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	r.logger.Debug("retrieved chunks",
		"candidates", len(rows),
		"returned", len(results),
		"boosted", len(boostedIDs))

	return results, nil
}
