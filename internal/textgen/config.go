package textgen

import (
	"fmt"
	"os"
	"time"
)

// Config holds all text-generation provider configuration.
type Config struct {
	// Provider selects which backend to use.
	// Values: "anthropic", "openai", "gemini", "mock"
	Provider string

	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout is the maximum duration for a single generation call,
	// including retries. Default: 10s; flows answer a chat message, so
	// slow generation is worse than a canned fallback.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "mock",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 10 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("MATHMATE_TEXTGEN_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := os.Getenv("MATHMATE_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("MATHMATE_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := os.Getenv("MATHMATE_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("MATHMATE_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("MATHMATE_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("MATHMATE_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("MATHMATE_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	return cfg
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("MATHMATE_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("MATHMATE_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("MATHMATE_GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown text provider: %q", c.Provider)
	}
	return nil
}
