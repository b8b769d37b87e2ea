// Package embedding wraps the Genkit embedder and provides vector helpers
// shared by retrieval and workflow learning.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/firebase/genkit/go/ai"
)

// Dimension is the vector dimension used across the schema. All embedding
// columns are declared as vector(384); embedders must be configured to
// produce vectors of this size.
const Dimension = 384

// ErrDimensionMismatch indicates a vector of the wrong dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ErrEmptyEmbedding indicates the embedder returned no usable vector.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

// Text embeds a single text and returns its vector.
// The returned vector is validated against Dimension.
func Text(ctx context.Context, embedder ai.Embedder, text string) ([]float32, error) {
	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{
				Content: []*ai.Part{ai.NewTextPart(text)},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	vec := resp.Embeddings[0].Embedding
	if err := Validate(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// Validate checks that a vector has the expected dimension.
func Validate(vec []float32) error {
	if len(vec) != Dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, Dimension, len(vec))
	}
	return nil
}

// Cosine returns the cosine similarity between two vectors of equal length.
// Returns 0 when either vector has zero magnitude.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
