package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
)

// StrategyRegistry manages strategy registrations
type StrategyRegistry struct {
	mu                   sync.RWMutex
	forecastStrategies   map[string]strategy.ForecastStrategy
	enrichmentStrategies map[string]strategy.EnrichmentStrategy
	defaults             map[strategy.StrategyType]string
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		forecastStrategies:   make(map[string]strategy.ForecastStrategy),
		enrichmentStrategies: make(map[string]strategy.EnrichmentStrategy),
		defaults:             make(map[strategy.StrategyType]string),
	}
}

// RegisterForecastStrategy registers a forecast strategy
func (r *StrategyRegistry) RegisterForecastStrategy(s strategy.ForecastStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.forecastStrategies[name]; exists {
		return fmt.Errorf("%w: forecast strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.forecastStrategies[name] = s
	return nil
}

// GetForecastStrategy returns a forecast strategy by name
func (r *StrategyRegistry) GetForecastStrategy(name string) (strategy.ForecastStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.forecastStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: forecast strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// ListForecastStrategies returns all registered forecast strategy names
func (r *StrategyRegistry) ListForecastStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.forecastStrategies))
	for name := range r.forecastStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForecastStrategies returns every registered forecast strategy ordered by
// name. The forecast ensemble iterates this list.
func (r *StrategyRegistry) ForecastStrategies() []strategy.ForecastStrategy {
	names := r.ListForecastStrategies()

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]strategy.ForecastStrategy, 0, len(names))
	for _, name := range names {
		if s, ok := r.forecastStrategies[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// UnregisterForecastStrategy removes a forecast strategy
func (r *StrategyRegistry) UnregisterForecastStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.forecastStrategies[name]; !exists {
		return fmt.Errorf("%w: forecast strategy '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.forecastStrategies, name)
	return nil
}

// RegisterEnrichmentStrategy registers an enrichment connector
func (r *StrategyRegistry) RegisterEnrichmentStrategy(s strategy.EnrichmentStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.enrichmentStrategies[name]; exists {
		return fmt.Errorf("%w: enrichment strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.enrichmentStrategies[name] = s
	return nil
}

// GetEnrichmentStrategy returns an enrichment connector by name, or the default if name is empty
func (r *StrategyRegistry) GetEnrichmentStrategy(name string) (strategy.EnrichmentStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaults[strategy.StrategyTypeEnrichment]
		if name == "" {
			return nil, fmt.Errorf("%w: no default enrichment strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.enrichmentStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: enrichment strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// GetEnrichmentStrategyOrDefault returns an enrichment connector by name, or
// the default if not found. It returns nil when neither exists.
func (r *StrategyRegistry) GetEnrichmentStrategyOrDefault(name string) strategy.EnrichmentStrategy {
	s, err := r.GetEnrichmentStrategy(name)
	if err != nil {
		s, _ = r.GetEnrichmentStrategy("")
	}
	return s
}

// ListEnrichmentStrategies returns all registered enrichment connector names
func (r *StrategyRegistry) ListEnrichmentStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.enrichmentStrategies))
	for name := range r.enrichmentStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterEnrichmentStrategy removes an enrichment connector
func (r *StrategyRegistry) UnregisterEnrichmentStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.enrichmentStrategies[name]; !exists {
		return fmt.Errorf("%w: enrichment strategy '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.enrichmentStrategies, name)

	// Clear default if it was this strategy
	if r.defaults[strategy.StrategyTypeEnrichment] == name {
		delete(r.defaults, strategy.StrategyTypeEnrichment)
	}
	return nil
}

// SetDefault sets the default strategy for a strategy type
func (r *StrategyRegistry) SetDefault(strategyType strategy.StrategyType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRegisteredLocked(strategyType, name) {
		return fmt.Errorf("%w: strategy '%s' of type '%s' not found", shared.ErrNotFound, name, strategyType)
	}

	r.defaults[strategyType] = name
	return nil
}

// GetDefault returns the default strategy name for a strategy type
func (r *StrategyRegistry) GetDefault(strategyType strategy.StrategyType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType]
}

// HasDefault returns true if a default is set for the strategy type
func (r *StrategyRegistry) HasDefault(strategyType strategy.StrategyType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType] != ""
}

// IsRegistered returns true if a strategy with the given name is registered for the type
func (r *StrategyRegistry) IsRegistered(strategyType strategy.StrategyType, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRegisteredLocked(strategyType, name)
}

// isRegisteredLocked checks registration without locking (caller must hold lock)
func (r *StrategyRegistry) isRegisteredLocked(strategyType strategy.StrategyType, name string) bool {
	switch strategyType {
	case strategy.StrategyTypeForecast:
		_, exists := r.forecastStrategies[name]
		return exists
	case strategy.StrategyTypeEnrichment:
		_, exists := r.enrichmentStrategies[name]
		return exists
	default:
		return false
	}
}

// Availability reports the capability flag of every registered strategy
func (r *StrategyRegistry) Availability() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.forecastStrategies)+len(r.enrichmentStrategies))
	for name, s := range r.forecastStrategies {
		out[string(strategy.StrategyTypeForecast)+"/"+name] = s.Available()
	}
	for name, s := range r.enrichmentStrategies {
		out[string(strategy.StrategyTypeEnrichment)+"/"+name] = s.Available()
	}
	return out
}

// Stats returns registration counts for each strategy type
func (r *StrategyRegistry) Stats() map[strategy.StrategyType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[strategy.StrategyType]int{
		strategy.StrategyTypeForecast:   len(r.forecastStrategies),
		strategy.StrategyTypeEnrichment: len(r.enrichmentStrategies),
	}
}
