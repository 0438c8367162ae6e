// Package registry constructs the ordered provider chain from configuration.
package registry

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/bloodplusfight/careline/pkg/providers"
	"github.com/bloodplusfight/careline/pkg/providers/cloudflare"
	"github.com/bloodplusfight/careline/pkg/providers/openai"
)

// Build instantiates every configured, credentialed provider and returns
// them ordered by priority (lower first). Providers without credentials are
// skipped with a warning rather than failing startup, so a partially
// configured deployment still serves through the remaining chain.
func Build(configs []providers.ProviderConfig, logger *slog.Logger) ([]providers.Provider, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ordered := make([]providers.ProviderConfig, len(configs))
	copy(ordered, configs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	chain := make([]providers.Provider, 0, len(ordered))
	for _, cfg := range ordered {
		if !cfg.Credentialed() {
			logger.Warn("skipping provider without credentials",
				"provider", cfg.Name, "type", cfg.Type)
			continue
		}

		var (
			p   providers.Provider
			err error
		)
		switch cfg.Type {
		case "cloudflare":
			p, err = cloudflare.NewProvider(cfg)
		case "openai":
			p, err = openai.NewProvider(cfg)
		default:
			return nil, fmt.Errorf("unknown provider type %q for provider %q", cfg.Type, cfg.Name)
		}
		if err != nil {
			return nil, err
		}

		logger.Info("provider registered",
			"provider", cfg.Name, "type", cfg.Type,
			"model", cfg.Model, "priority", cfg.Priority)
		chain = append(chain, p)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no credentialed providers configured")
	}
	return chain, nil
}
