package genai

import (
	"context"

	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// Service answers support questions that no knowledge entry covers
type Service interface {
	// Generate returns a complete answer
	Generate(ctx context.Context, req Request) (*Result, error)

	// Stream returns the answer as text fragments in arrival order. The channel is
	// closed after the last fragment or after a fragment carrying Err.
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

// Request is one question with the context the model should ground on
type Request struct {
	Question string
	Platform types.Platform
	Locale   types.Locale
	// Articles are the help articles available in the question's locale
	Articles []ArticleRef
}

// ArticleRef is the part of a knowledge entry the model sees
type ArticleRef struct {
	Key      model.KnowledgeKey
	Title    string
	Category string
}

// Result is a generated answer
type Result struct {
	Text    string
	Sources []string
	Usage   model.TokenUsage
}

// Chunk is one streamed fragment. A non-nil Err ends the stream.
type Chunk struct {
	Text string
	Err  error
}

// llmResponse is the structured output from the LLM
type llmResponse struct {
	Answer string `json:"answer"`
	// Sources are titles of the articles the answer relies on
	Sources []string `json:"sources"`
}
