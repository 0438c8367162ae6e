package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody bounds how much of an upstream error body is carried in the
// returned error.
const maxErrorBody = 512

// HTTPProvider is the base for HTTP adapters: a pooled client plus a
// single-attempt POST helper with typed error classification. Adapters embed
// it and add their wire formats.
type HTTPProvider struct {
	config ProviderConfig
	client *http.Client
}

// NewHTTPProvider creates the base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 20
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		// No client-level timeout: per-attempt deadlines arrive on the
		// request context so the orchestrator can adapt them.
		client: &http.Client{Transport: transport},
	}
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Model returns the provider's configured model identifier.
func (p *HTTPProvider) Model() string {
	return p.config.Model
}

// Config returns the provider's configuration.
func (p *HTTPProvider) Config() ProviderConfig {
	return p.config
}

// PostJSON performs a single POST of a JSON payload and returns the response
// body. It makes exactly one attempt; retry policy belongs to the caller.
//
// Errors are classified: context deadline expiry becomes *TimeoutError,
// 401/403 becomes *AuthError, any other non-2xx status becomes
// *UpstreamError.
func (p *HTTPProvider) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	budget := deadlineBudget(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Provider: p.config.Name, Timeout: budget}
		}
		return nil, fmt.Errorf("provider %q request failed: %w", p.config.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Provider: p.config.Name, Timeout: budget}
		}
		return nil, &InvalidResponseError{Provider: p.config.Name, Reason: "failed to read body", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Provider: p.config.Name, Message: truncate(raw)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &UpstreamError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    truncate(raw),
		}
	}

	return raw, nil
}

// deadlineBudget reports the context budget at call start for error messages.
func deadlineBudget(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
