package forecast

import "time"

// Config holds the ensemble parameters. It is built once at start-up and
// passed to NewEnsemble.
type Config struct {
	// HorizonDays is the number of calendar days projected
	HorizonDays int
	// SaturdayWeight is the share of a weekday's revenue a Saturday carries
	// when model forecasts are masked
	SaturdayWeight float64
	// TrailingDays is the window of the simple average method
	TrailingDays int
	// MinModelPoints is the number of daily points below which models are
	// not attempted
	MinModelPoints int
	// ModelTimeout bounds a single strategy fit
	ModelTimeout time.Duration
	// HighAgreement and MediumAgreement are the dispersion limits of the
	// cross-model confidence label
	HighAgreement   float64
	MediumAgreement float64
	// SimpleHighCV and SimpleMediumCV are the CV limits of the simple
	// average confidence label
	SimpleHighCV   float64
	SimpleMediumCV float64
}

// DefaultConfig returns the standard ensemble parameters
func DefaultConfig() Config {
	return Config{
		HorizonDays:     30,
		SaturdayWeight:  0.5,
		TrailingDays:    14,
		MinModelPoints:  7,
		ModelTimeout:    10 * time.Second,
		HighAgreement:   0.15,
		MediumAgreement: 0.30,
		SimpleHighCV:    0.3,
		SimpleMediumCV:  0.6,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.SaturdayWeight < 0 || c.SaturdayWeight > 1 {
		c.SaturdayWeight = d.SaturdayWeight
	}
	if c.TrailingDays <= 0 {
		c.TrailingDays = d.TrailingDays
	}
	if c.MinModelPoints <= 0 {
		c.MinModelPoints = d.MinModelPoints
	}
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = d.ModelTimeout
	}
	if c.HighAgreement <= 0 {
		c.HighAgreement = d.HighAgreement
	}
	if c.MediumAgreement <= 0 {
		c.MediumAgreement = d.MediumAgreement
	}
	if c.SimpleHighCV <= 0 {
		c.SimpleHighCV = d.SimpleHighCV
	}
	if c.SimpleMediumCV <= 0 {
		c.SimpleMediumCV = d.SimpleMediumCV
	}
	return c
}
