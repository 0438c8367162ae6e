// Package cloudflare implements the Workers AI provider adapter.
//
// Workers AI exposes models through a REST endpoint per model:
//
//	POST {base}/accounts/{account_id}/ai/run/{model}
//
// with a bearer token and a chat-style request body. Responses wrap the
// generated text in a {result, success, errors} envelope.
package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/bloodplusfight/careline/pkg/providers"
)

// DefaultBaseURL is the production Workers AI API base.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Provider is the Workers AI adapter.
type Provider struct {
	*providers.HTTPProvider
}

// request is the Workers AI chat request body.
type request struct {
	Messages    []providers.Message `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// response is the Workers AI envelope.
type response struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// NewProvider creates a Workers AI provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{Provider: "cloudflare", Field: "name", Message: "provider name is required"}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "api_key", Message: "API key is required"}
	}
	if config.AccountID == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "account_id", Message: "account ID is required"}
	}
	if config.Model == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "model", Message: "model is required"}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	return &Provider{HTTPProvider: providers.NewHTTPProvider(config)}, nil
}

// Complete sends one chat request to Workers AI and normalizes the response.
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

	endpoint := fmt.Sprintf("%s/accounts/%s/ai/run/%s",
		strings.TrimRight(cfg.BaseURL, "/"),
		url.PathEscape(cfg.AccountID),
		model)

	raw, err := p.PostJSON(ctx, endpoint, request{
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
	if !out.Success {
		reason := "success=false"
		if len(out.Errors) > 0 {
			reason = fmt.Sprintf("success=false: %s", out.Errors[0].Message)
		}
		return nil, &providers.InvalidResponseError{Provider: cfg.Name, Reason: reason}
	}
	if strings.TrimSpace(out.Result.Response) == "" {
		return nil, &providers.InvalidResponseError{Provider: cfg.Name, Reason: "empty response text"}
	}

	// Workers AI does not report a finish reason or token usage on this
	// endpoint; a successful envelope implies a completed generation.
	return &providers.CompletionResponse{
		Content:      out.Result.Response,
		FinishReason: "stop",
	}, nil
}
