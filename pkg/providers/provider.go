package providers

import "context"

// Provider is the interface every LLM backend adapter implements.
// It is a single-attempt capability: one call, one normalized outcome.
// Retries, fallback across backends, and circuit breaking live in the
// orchestrator, not in the adapter.
//
// Implementations must respect context cancellation: when the deadline
// expires the underlying network call is cancelled, not abandoned.
type Provider interface {
	// Name returns the provider's configured name (e.g. "cloudflare-primary").
	Name() string

	// Model returns the model identifier requests are sent to.
	Model() string

	// Complete sends one completion request and returns the normalized
	// response. Errors are typed: *TimeoutError, *UpstreamError,
	// *InvalidResponseError, or *AuthError.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}
