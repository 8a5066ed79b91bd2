package strategy

// StrategyType represents the type of strategy
type StrategyType string

const (
	StrategyTypeForecast   StrategyType = "forecast"
	StrategyTypeEnrichment StrategyType = "enrichment"
)

// String returns the string representation of the strategy type
func (t StrategyType) String() string {
	return string(t)
}

// IsValid returns true if the strategy type is valid
func (t StrategyType) IsValid() bool {
	switch t {
	case StrategyTypeForecast, StrategyTypeEnrichment:
		return true
	default:
		return false
	}
}

// AllStrategyTypes returns all valid strategy types
func AllStrategyTypes() []StrategyType {
	return []StrategyType{
		StrategyTypeForecast,
		StrategyTypeEnrichment,
	}
}

// Strategy is the base interface for all strategies
type Strategy interface {
	// Name returns the unique name of the strategy
	Name() string
	// Type returns the type of the strategy
	Type() StrategyType
	// Description returns a human-readable description
	Description() string
	// Available reports whether the capability behind the strategy can be used
	// in this process (enabled in configuration, credentials present, ...).
	Available() bool
}

// BaseStrategy provides common implementation for strategies
type BaseStrategy struct {
	name         string
	strategyType StrategyType
	description  string
	available    bool
}

// NewBaseStrategy creates a new BaseStrategy that is available.
func NewBaseStrategy(name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{
		name:         name,
		strategyType: strategyType,
		description:  description,
		available:    true,
	}
}

// Name returns the strategy name
func (s BaseStrategy) Name() string {
	return s.name
}

// Type returns the strategy type
func (s BaseStrategy) Type() StrategyType {
	return s.strategyType
}

// Description returns the strategy description
func (s BaseStrategy) Description() string {
	return s.description
}

// Available returns the capability flag
func (s BaseStrategy) Available() bool {
	return s.available
}

// WithAvailability returns a copy with the capability flag set
func (s BaseStrategy) WithAvailability(available bool) BaseStrategy {
	s.available = available
	return s
}
