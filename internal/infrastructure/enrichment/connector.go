// Package enrichment connects the analytics bundle to external narrative
// providers. Connectors implement strategy.EnrichmentStrategy; Service builds
// the prompt, calls the connector and validates the answer.
package enrichment

import (
	"context"

	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"github.com/erp/aftersales/internal/infrastructure/config"
)

// Provider names, also used as strategy names in the registry
const (
	ProviderGemini = config.ProviderGemini
	ProviderClaude = config.ProviderClaude
)

// Options configures a provider connector
type Options struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// BaseURL overrides the provider endpoint
	BaseURL string
}

// OptionsFrom maps the enrichment configuration to connector options
func OptionsFrom(cfg config.EnrichmentConfig) Options {
	return Options{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

// Connectors builds one connector per supported provider. Only the
// configured provider receives the API key; the others are registered as
// unavailable so their absence is reported rather than silently ignored.
func Connectors(ctx context.Context, cfg config.EnrichmentConfig) ([]strategy.EnrichmentStrategy, error) {
	gemini, claude := Options{}, Options{}
	switch cfg.Provider {
	case ProviderGemini:
		gemini = OptionsFrom(cfg)
	case ProviderClaude:
		claude = OptionsFrom(cfg)
	}

	g, err := NewGeminiConnector(ctx, gemini)
	if err != nil {
		return nil, err
	}
	return []strategy.EnrichmentStrategy{g, NewClaudeConnector(claude)}, nil
}
