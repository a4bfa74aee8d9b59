// Package textgen abstracts plain-text generation from an LLM provider.
// Flows use it for short motivational and explanatory blurbs; every call
// site carries a static fallback, so a provider outage degrades to canned
// copy instead of an error.
package textgen

import (
	"context"
)

// Generator is the core abstraction for text generation.
type Generator interface {
	// Generate sends the prompt and returns the model's text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this generator is configured
	// to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Prompt is the user-turn content. Generation here is single-turn;
	// flows never hold a conversation with the model.
	Prompt string

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Response holds the model's output.
type Response struct {
	// Text is the generated output, whitespace-trimmed.
	Text string

	// Model is the actual model that served the request.
	Model string

	// InputTokens and OutputTokens report token consumption.
	InputTokens  int
	OutputTokens int
}
