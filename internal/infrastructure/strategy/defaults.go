package strategy

import (
	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"github.com/erp/aftersales/internal/infrastructure/strategy/forecast"
)

// Options selects which strategies NewRegistryWithDefaults makes available
type Options struct {
	SeasonalEnabled bool
	ARIMAEnabled    bool
	LinearEnabled   bool
	// Enrichers are registered in order; the first available one becomes
	// the default enrichment connector
	Enrichers []strategy.EnrichmentStrategy
}

// DefaultOptions enables every forecast model and no enrichment connector
func DefaultOptions() Options {
	return Options{SeasonalEnabled: true, ARIMAEnabled: true, LinearEnabled: true}
}

// NewRegistryWithDefaults creates a new registry with the forecast models
// registered. Disabled models stay registered but report themselves as
// unavailable so the ensemble can say why they were skipped.
func NewRegistryWithDefaults(opts Options) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	// Register forecast strategies
	if err := r.RegisterForecastStrategy(forecast.NewSeasonalStrategy(opts.SeasonalEnabled)); err != nil {
		return nil, err
	}
	if err := r.RegisterForecastStrategy(forecast.NewARIMAStrategy(opts.ARIMAEnabled)); err != nil {
		return nil, err
	}
	if err := r.RegisterForecastStrategy(forecast.NewLinearTrendStrategy(opts.LinearEnabled)); err != nil {
		return nil, err
	}

	// Register enrichment connectors
	for _, e := range opts.Enrichers {
		if err := r.RegisterEnrichmentStrategy(e); err != nil {
			return nil, err
		}
		if !r.HasDefault(strategy.StrategyTypeEnrichment) && e.Available() {
			if err := r.SetDefault(strategy.StrategyTypeEnrichment, e.Name()); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}
