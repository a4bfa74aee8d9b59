package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// openaiModels maps friendly names to OpenAI model IDs.
var openaiModels = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

// OpenAIGenerator implements Generator using the OpenAI SDK.
// It also supports OpenAI-compatible APIs via BaseURL.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a new OpenAI generator.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	client := openai.NewClientWithConfig(config)
	model := resolveModel(cfg.Model, openaiModels)

	return &OpenAIGenerator{
		client: client,
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               g.model,
		Messages:            messages,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("no choices in OpenAI response"),
		}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("empty completion in OpenAI response"),
		}
	}

	return &Response{
		Text:         text,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (g *OpenAIGenerator) ModelID() string {
	return g.model
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &ErrProviderUnavailable{Err: err}
		}
	}
	return &ErrProviderUnavailable{Err: err}
}
