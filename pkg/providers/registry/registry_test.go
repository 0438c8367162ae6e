package registry

import (
	"testing"

	"github.com/bloodplusfight/careline/pkg/providers"
)

func TestBuild_OrdersByPriority(t *testing.T) {
	chain, err := Build([]providers.ProviderConfig{
		{Name: "secondary", Type: "openai", APIKey: "k", Model: "gpt-4o-mini", Priority: 2},
		{Name: "primary", Type: "cloudflare", APIKey: "k", AccountID: "a", Model: "@cf/meta/llama-3-8b-instruct", Priority: 1},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(chain) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(chain))
	}
	if chain[0].Name() != "primary" || chain[1].Name() != "secondary" {
		t.Errorf("expected priority order [primary secondary], got [%s %s]",
			chain[0].Name(), chain[1].Name())
	}
}

func TestBuild_SkipsUncredentialed(t *testing.T) {
	chain, err := Build([]providers.ProviderConfig{
		{Name: "no-key", Type: "openai", Model: "gpt-4o-mini", Priority: 1},
		{Name: "good", Type: "openai", APIKey: "k", Model: "gpt-4o-mini", Priority: 2},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(chain) != 1 || chain[0].Name() != "good" {
		t.Fatalf("expected only the credentialed provider, got %d", len(chain))
	}
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := Build([]providers.ProviderConfig{
		{Name: "x", Type: "mystery", APIKey: "k", Model: "m"},
	}, nil)
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestBuild_EmptyChain(t *testing.T) {
	_, err := Build(nil, nil)
	if err == nil {
		t.Fatal("expected error when no providers are credentialed")
	}
}
