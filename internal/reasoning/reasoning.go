// Package reasoning captures a structured trace of how an answer was
// produced: the timed pipeline steps, the chunks that were retrieved, and
// the workflow context that influenced retrieval. The resulting Chain is
// persisted with each training session and later summarized into workflow
// embeddings.
package reasoning

import (
	"fmt"
	"time"
)

// SchemaVersion identifies the serialized Chain layout. Bump when the
// JSON structure changes so readers can branch on old records.
const SchemaVersion = 1

// previewLimit caps the stored step input/output previews.
const previewLimit = 200

// Well-known step names. Steps with these names additionally populate the
// dedicated duration fields on the Chain.
const (
	StepQueryEmbedding = "query_embedding"
	StepWorkflowSearch = "workflow_search"
	StepRetrieval      = "retrieval"
	StepGeneration     = "generation"
)

// Step is one timed stage of the answer pipeline.
type Step struct {
	Name          string  `json:"name"`
	DurationMs    float64 `json:"duration_ms"`
	InputPreview  string  `json:"input_preview,omitempty"`
	OutputPreview string  `json:"output_preview,omitempty"`
}

// ChunkTrace records a chunk as it appeared in the final ranking,
// including the accuracy weight it carried at retrieval time.
type ChunkTrace struct {
	ChunkID        int64   `json:"chunk_id"`
	RepoName       string  `json:"repo_name"`
	FilePath       string  `json:"file_path"`
	SectionTitle   string  `json:"section_title,omitempty"`
	ContentPreview string  `json:"content_preview"`
	Similarity     float64 `json:"similarity"`
	WeightedScore  float64 `json:"weighted_score"`
	AccuracyWeight float64 `json:"accuracy_weight"`
	Rank           int     `json:"rank"`
	Boosted        bool    `json:"boosted,omitempty"`
}

// SimilarWorkflow identifies a past workflow that influenced retrieval.
type SimilarWorkflow struct {
	WorkflowID int64   `json:"workflow_id"`
	SessionID  int64   `json:"session_id"`
	Similarity float64 `json:"similarity"`
}

// WorkflowContext records which past workflows boosted which chunks.
type WorkflowContext struct {
	SimilarWorkflows []SimilarWorkflow `json:"similar_workflows"`
	BoostedChunkIDs  []int64           `json:"boosted_chunk_ids"`
}

// Chain is the complete reasoning trace for one answer.
type Chain struct {
	SchemaVersion        int              `json:"schema_version"`
	Query                string           `json:"query"`
	Steps                []Step           `json:"steps"`
	RetrievedChunks      []ChunkTrace     `json:"retrieved_chunks"`
	WorkflowContext      *WorkflowContext `json:"workflow_context,omitempty"`
	LLMProvider          string           `json:"llm_provider,omitempty"`
	LLMModel             string           `json:"llm_model,omitempty"`
	QueryEmbeddingTimeMs float64          `json:"query_embedding_time_ms"`
	WorkflowSearchTimeMs float64          `json:"workflow_search_time_ms"`
	RetrievalTimeMs      float64          `json:"retrieval_time_ms"`
	GenerationTimeMs     float64          `json:"generation_time_ms"`
	TotalTimeMs          float64          `json:"total_time_ms"`
}

// Tracer accumulates a Chain during answer generation.
//
// Tracer is not safe for concurrent use; one tracer serves one request.
// Misuse (ending a step that was never started, starting a step twice,
// recording after Finalize) is a programming error and panics.
type Tracer struct {
	chain     Chain
	started   time.Time
	open      map[string]time.Time
	finalized bool

	now func() time.Time
}

// NewTracer starts a trace for the given query.
func NewTracer(query string) *Tracer {
	t := &Tracer{
		open: make(map[string]time.Time),
		now:  time.Now,
	}
	t.started = t.now()
	t.chain = Chain{
		SchemaVersion: SchemaVersion,
		Query:         query,
	}
	return t
}

// StartStep marks the beginning of a named pipeline step.
func (t *Tracer) StartStep(name string) {
	t.mustBeActive()
	if _, ok := t.open[name]; ok {
		panic(fmt.Sprintf("reasoning: step %q already started", name))
	}
	t.open[name] = t.now()
}

// EndStep completes a previously started step and records its duration
// along with truncated previews of the step's input and output.
func (t *Tracer) EndStep(name, input, output string) {
	t.mustBeActive()
	startedAt, ok := t.open[name]
	if !ok {
		panic(fmt.Sprintf("reasoning: step %q ended without start", name))
	}
	delete(t.open, name)

	durationMs := float64(t.now().Sub(startedAt)) / float64(time.Millisecond)
	t.chain.Steps = append(t.chain.Steps, Step{
		Name:          name,
		DurationMs:    durationMs,
		InputPreview:  preview(input),
		OutputPreview: preview(output),
	})

	switch name {
	case StepQueryEmbedding:
		t.chain.QueryEmbeddingTimeMs = durationMs
	case StepWorkflowSearch:
		t.chain.WorkflowSearchTimeMs = durationMs
	case StepRetrieval:
		t.chain.RetrievalTimeMs = durationMs
	case StepGeneration:
		t.chain.GenerationTimeMs = durationMs
	}
}

// AddChunk records a chunk from the final ranking. The content preview is
// truncated like step previews so full chunk bodies never land in the trace.
func (t *Tracer) AddChunk(c ChunkTrace) {
	t.mustBeActive()
	c.ContentPreview = preview(c.ContentPreview)
	t.chain.RetrievedChunks = append(t.chain.RetrievedChunks, c)
}

// SetLLMInfo records which provider and model generated the answer.
func (t *Tracer) SetLLMInfo(provider, model string) {
	t.mustBeActive()
	t.chain.LLMProvider = provider
	t.chain.LLMModel = model
}

// SetWorkflowContext records the workflow similarity context applied to
// this request. Passing nil clears it.
func (t *Tracer) SetWorkflowContext(wc *WorkflowContext) {
	t.mustBeActive()
	t.chain.WorkflowContext = wc
}

// Finalize closes the trace and returns the completed Chain. The total
// time is wall clock since the tracer was created. The tracer must not be
// used afterwards.
func (t *Tracer) Finalize() Chain {
	t.mustBeActive()
	if len(t.open) != 0 {
		for name := range t.open {
			panic(fmt.Sprintf("reasoning: step %q still open at finalize", name))
		}
	}
	t.finalized = true
	t.chain.TotalTimeMs = float64(t.now().Sub(t.started)) / float64(time.Millisecond)
	return t.chain
}

func (t *Tracer) mustBeActive() {
	if t.finalized {
		panic("reasoning: tracer used after Finalize")
	}
}

// preview truncates s to previewLimit runes, appending "..." only when
// truncation actually happened.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit]) + "..."
}
