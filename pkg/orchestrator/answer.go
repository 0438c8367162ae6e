package orchestrator

// Answer is the normalized outcome of asking the provider chain.
type Answer struct {
	// Text is the answer delivered to the user.
	Text string `json:"text"`

	// Provider names the backend that produced the answer, or
	// FallbackProvider for the static fallback.
	Provider string `json:"provider"`

	// Model is the model identifier that produced the answer.
	Model string `json:"model,omitempty"`

	// Confidence estimates answer quality in [0,1]. Derived from the
	// finish reason; callers use it to decide cacheability.
	Confidence float64 `json:"confidence"`

	// Degraded marks the static fallback returned when every provider
	// failed. Degraded answers are never cached.
	Degraded bool `json:"degraded"`

	// TokensUsed is the total token consumption when reported.
	TokensUsed int `json:"tokens_used,omitempty"`

	// FinishReason is the provider's reported stop reason.
	FinishReason string `json:"finish_reason,omitempty"`

	// Language is the answer language ("en" or "th").
	Language string `json:"language"`
}

// confidenceFor maps a finish reason to an answer confidence.
// A clean stop is trustworthy; a truncated answer less so; anything
// unrecognized gets a conservative score.
func confidenceFor(finishReason string) float64 {
	switch finishReason {
	case "stop":
		return 0.95
	case "length":
		return 0.7
	default:
		return 0.5
	}
}
