package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/cloudvelous/answerd/internal/retrieval"
)

// systemPrompt constrains the model to the retrieved context.
const systemPrompt = `You are an assistant that answers questions about internal documentation.
Answer using only the provided context. Each context block is labeled with its source.
If the context does not contain the answer, say so instead of guessing.
Cite the sources you used by their labels.`

// Generator produces an answer from a prompt. Implemented by
// GenkitGenerator in production and by test doubles in tests.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GenkitGenerator generates answers through a Genkit model.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitGenerator creates a Generator for the given provider-qualified
// model name (e.g. "googleai/gemini-2.5-flash").
func NewGenkitGenerator(g *genkit.Genkit, modelName string) *GenkitGenerator {
	return &GenkitGenerator{g: g, modelName: modelName}
}

func (gg *GenkitGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return resp.Text(), nil
}

// buildPrompt renders the retrieved chunks as labeled context blocks
// followed by the question.
func buildPrompt(query string, chunks []retrieval.Result) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "[Source: %s/%s]\n", c.RepoName, c.FilePath)
		if c.SectionTitle != "" {
			fmt.Fprintf(&b, "Section: %s\n", c.SectionTitle)
		}
		b.WriteString(c.Content)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}
