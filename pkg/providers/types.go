package providers

import "time"

// Message represents a single message in a conversation.
// It is provider-agnostic and transformed to provider-specific formats.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used (prompt + completion)
	TotalTokens int `json:"total_tokens"`
}

// CompletionRequest represents a provider-agnostic completion request.
type CompletionRequest struct {
	// Model is the model identifier. Empty means the provider's configured
	// default model.
	Model string `json:"model"`

	// Messages is the conversation history, oldest first
	Messages []Message `json:"messages"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 1.0)
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse is the normalized response from any provider.
type CompletionResponse struct {
	// Content is the generated text
	Content string `json:"content"`

	// FinishReason is why generation stopped ("stop", "length", ...)
	FinishReason string `json:"finish_reason"`

	// Usage tracks token consumption when the provider reports it
	Usage TokenUsage `json:"usage"`
}

// ProviderConfig is the static descriptor for one backend.
type ProviderConfig struct {
	// Name uniquely identifies this provider instance
	Name string `yaml:"name" json:"name"`

	// Type selects the adapter ("cloudflare" or "openai")
	Type string `yaml:"type" json:"type"`

	// BaseURL is the API base URL. Each adapter has a production default.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// APIKey is the bearer token
	APIKey string `yaml:"api_key" json:"-"`

	// AccountID is required by the cloudflare adapter
	AccountID string `yaml:"account_id" json:"account_id,omitempty"`

	// Model is the default model identifier
	Model string `yaml:"model" json:"model"`

	// MaxTokens is the per-request token budget
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// Temperature is the default sampling temperature
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// Priority orders providers in the fallback chain; lower goes first
	Priority int `yaml:"priority" json:"priority"`

	// Reliability is the operator's declared expectation (0.0 to 1.0),
	// used for logging and dashboards only
	Reliability float64 `yaml:"reliability" json:"reliability"`

	// Connection pool tuning
	MaxIdleConns        int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host" json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout" json:"idle_conn_timeout"`
}

// Credentialed reports whether the provider has usable credentials and can
// appear in the fallback chain.
func (c ProviderConfig) Credentialed() bool {
	if c.APIKey == "" {
		return false
	}
	if c.Type == "cloudflare" && c.AccountID == "" {
		return false
	}
	return true
}
