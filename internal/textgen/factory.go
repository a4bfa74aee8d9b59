package textgen

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// NewGenerator creates a Generator from configuration, wrapped with retry
// and logging middleware.
func NewGenerator(ctx context.Context, cfg Config, log *logrus.Entry) (Generator, error) {
	var base Generator
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicGenerator(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIGenerator(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiGenerator(ctx, cfg.Gemini)
	case "mock":
		return NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown text provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → retry → logging → base
	logged := WithLogging(base, log)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}
