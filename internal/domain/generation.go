package domain

import (
	"context"
	"iter"
)

// GenerationConfig carries sampling parameters to the text generator.
// Zero values mean "not set" and are left to the provider default.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// Generator produces text from a prompt through an external model.
type Generator interface {
	// Stream yields text chunks in order. A non-nil error ends the sequence.
	Stream(ctx context.Context, prompt, system string, cfg GenerationConfig) iter.Seq2[string, error]
	// GenerateOnce returns the whole completion.
	GenerateOnce(ctx context.Context, prompt, system string, cfg GenerationConfig) (string, error)
}

// StreamEvent is one message on a response stream. Exactly one event per
// stream carries Done or Err, and it is always the last.
type StreamEvent struct {
	Content string
	Done    bool
	Err     error
}
