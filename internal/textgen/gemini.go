package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.0-pro",
}

// GeminiGenerator implements Generator using the Google Gemini SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a new Gemini generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := resolveModel(cfg.Model, geminiModels)

	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}

	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("empty completion in Gemini response"),
		}
	}

	resp := &Response{
		Text:  text,
		Model: g.model,
	}

	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}

	return resp, nil
}

func (g *GeminiGenerator) ModelID() string {
	return g.model
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.Code >= 500:
			return &ErrProviderUnavailable{Err: err}
		}
	}
	return &ErrProviderUnavailable{Err: err}
}
