package forecast

import (
	"time"

	"github.com/erp/aftersales/internal/domain/shared/strategy"
)

// Confidence is the qualitative reliability of a forecast
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Method labels
const (
	MethodNeedsMoreData = "needs more data"
	MethodSimpleAverage = "simple average"
	MethodEnsemble      = "ensemble"
)

// Result is the projected revenue of the next horizon
type Result struct {
	Projected       float64            `json:"projected"`
	Available       bool               `json:"available"`
	Confidence      Confidence         `json:"confidence"`
	Method          string             `json:"method"`
	Models          map[string]float64 `json:"models"`
	ModelDailyRates map[string]float64 `json:"model_daily_rates"`
	Outcomes        []strategy.Outcome `json:"outcomes"`
	WorkingDays     int                `json:"working_days"`
	DailyRate       float64            `json:"daily_rate"`
	DataPoints      int                `json:"data_points"`
	HorizonStart    time.Time          `json:"horizon_start,omitempty"`
	HorizonEnd      time.Time          `json:"horizon_end,omitempty"`
	Message         string             `json:"message,omitempty"`
}

// Outcome returns the recorded outcome of a strategy by name
func (r Result) Outcome(name string) (strategy.Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Strategy == name {
			return o, true
		}
	}
	return strategy.Outcome{}, false
}
