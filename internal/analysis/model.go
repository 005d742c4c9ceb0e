package analysis

import (
	"context"
	"errors"

	"mirrormind/pkg/ai"
)

// ModelClient is the language-model boundary used by the pipeline. It may
// return empty text, malformed JSON, or schema-violating content; the
// pipeline classifies those rather than crashing on them.
type ModelClient interface {
	StructuredComplete(ctx context.Context, req ai.StructuredRequest) (string, error)
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var (
	// ErrEmptyModelResponse marks a model call that returned no content.
	ErrEmptyModelResponse = errors.New("empty model response")
	// ErrInvalidModelOutput marks content that failed JSON parsing or
	// schema validation; the underlying cause is attached.
	ErrInvalidModelOutput = errors.New("invalid model output")
)
