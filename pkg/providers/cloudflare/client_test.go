package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloodplusfight/careline/pkg/providers"
)

func testConfig(baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:      "cf-test",
		Type:      "cloudflare",
		BaseURL:   baseURL,
		APIKey:    "test-key",
		AccountID: "acct-123",
		Model:     "@cf/meta/llama-3-8b-instruct",
		MaxTokens: 256,
	}
}

func TestNewProvider_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*providers.ProviderConfig)
	}{
		{"missing name", func(c *providers.ProviderConfig) { c.Name = "" }},
		{"missing api key", func(c *providers.ProviderConfig) { c.APIKey = "" }},
		{"missing account id", func(c *providers.ProviderConfig) { c.AccountID = "" }},
		{"missing model", func(c *providers.ProviderConfig) { c.Model = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://example.invalid")
			tt.mutate(&cfg)

			_, err := NewProvider(cfg)
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestComplete_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"result":  map[string]any{"response": "Hello from Workers AI"},
			"success": true,
		})
	}))
	defer srv.Close()

	p, err := NewProvider(testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Complete(context.Background(), &providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Content != "Hello from Workers AI" {
		t.Errorf("content: got %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish reason: got %q, want stop", resp.FinishReason)
	}
	if gotPath != "/accounts/acct-123/ai/run/@cf/meta/llama-3-8b-instruct" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotBody["max_tokens"] != float64(256) {
		t.Errorf("max_tokens: got %v, want configured default 256", gotBody["max_tokens"])
	}
}

func TestComplete_EnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 7000, "message": "model not found"}},
		})
	}))
	defer srv.Close()

	p, _ := NewProvider(testConfig(srv.URL))
	_, err := p.Complete(context.Background(), &providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})

	var invalid *providers.InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidResponseError, got %v", err)
	}
}

func TestComplete_EmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result":  map[string]any{"response": "   "},
			"success": true,
		})
	}))
	defer srv.Close()

	p, _ := NewProvider(testConfig(srv.URL))
	_, err := p.Complete(context.Background(), &providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})

	var invalid *providers.InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidResponseError for blank text, got %v", err)
	}
}

func TestComplete_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, _ := NewProvider(testConfig(srv.URL))
	_, err := p.Complete(context.Background(), &providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})

	var upstream *providers.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", upstream.StatusCode)
	}
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	p, _ := NewProvider(testConfig(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, &providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})

	var timeout *providers.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}
