package testutil

import (
	"context"
	"hash/fnv"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/cloudvelous/answerd/internal/embedding"
)

// FakeEmbedder produces deterministic embeddings derived from the input
// text. Identical texts embed identically, which is all the similarity
// machinery needs in tests; no API key or network access required.
type FakeEmbedder struct{}

func (FakeEmbedder) Name() string            { return "fake-embedder" }
func (FakeEmbedder) Register(_ api.Registry) {}

func (FakeEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text string
		for _, part := range doc.Content {
			text += part.Text
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: DeterministicVector(text),
		})
	}
	return resp, nil
}

// DeterministicVector derives a pseudo-random embedding from text. The same
// text always yields the same vector.
func DeterministicVector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, embedding.Dimension)
	for i := range vec {
		// xorshift64 keeps the components independent enough for cosine tests
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		vec[i] = float32(state%2000)/1000.0 - 1.0
	}
	return vec
}
