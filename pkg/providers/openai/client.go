// Package openai implements the adapter for OpenAI's chat completions API
// and for any OpenAI-compatible backend (set base_url to point at it).
package openai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bloodplusfight/careline/pkg/providers"
)

// DefaultBaseURL is the production OpenAI API base.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider is the OpenAI chat completions adapter.
type Provider struct {
	*providers.HTTPProvider
}

// request is the chat completions request body.
type request struct {
	Model       string              `json:"model"`
	Messages    []providers.Message `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// response is the chat completions response body.
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage providers.TokenUsage `json:"usage"`
}

// NewProvider creates an OpenAI provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{Provider: "openai", Field: "name", Message: "provider name is required"}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "api_key", Message: "API key is required"}
	}
	if config.Model == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "model", Message: "model is required"}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	return &Provider{HTTPProvider: providers.NewHTTPProvider(config)}, nil
}

// Complete sends one chat completions request and normalizes the response.
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	cfg := p.Config()

	model := req.Model
	if model == "" {
		model = cfg.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = cfg.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = cfg.Temperature
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"

	raw, err := p.PostJSON(ctx, endpoint, request{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &providers.InvalidResponseError{Provider: cfg.Name, Reason: "unparseable body", Cause: err}
	}
	if len(out.Choices) == 0 {
		return nil, &providers.InvalidResponseError{Provider: cfg.Name, Reason: "no choices"}
	}
	content := out.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, &providers.InvalidResponseError{Provider: cfg.Name, Reason: "empty response text"}
	}

	return &providers.CompletionResponse{
		Content:      content,
		FinishReason: out.Choices[0].FinishReason,
		Usage:        out.Usage,
	}, nil
}
