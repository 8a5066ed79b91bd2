package strategy

import (
	"context"
	"time"
)

// OutcomeStatus classifies the result of a single forecast strategy run
type OutcomeStatus string

const (
	OutcomeOK          OutcomeStatus = "ok"
	OutcomeUnavailable OutcomeStatus = "unavailable"
	OutcomeFitFailed   OutcomeStatus = "fit_failed"
)

// DailyPoint is one day of aggregated revenue
type DailyPoint struct {
	Date    time.Time
	Revenue float64
}

// ForecastInput is what every forecast strategy receives.
// Series is sorted by date and holds only days that had sales.
// Horizon lists the calendar days to project, in order.
type ForecastInput struct {
	Series  []DailyPoint
	Horizon []time.Time
}

// Outcome is the per-strategy result. Daily holds one projected value per
// horizon day when Status is OutcomeOK.
type Outcome struct {
	Strategy string        `json:"strategy"`
	Status   OutcomeStatus `json:"status"`
	Model    string        `json:"model,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Daily    []float64     `json:"-"`
}

// Ok builds a successful outcome
func Ok(model string, daily []float64) Outcome {
	return Outcome{Status: OutcomeOK, Model: model, Daily: daily}
}

// Unavailable builds an outcome for a capability that cannot run
func Unavailable(reason string) Outcome {
	return Outcome{Status: OutcomeUnavailable, Reason: reason}
}

// FitFailed builds an outcome for a model that could not be fitted
func FitFailed(reason string) Outcome {
	return Outcome{Status: OutcomeFitFailed, Reason: reason}
}

// IsOK returns true if the strategy produced a forecast
func (o Outcome) IsOK() bool {
	return o.Status == OutcomeOK
}

// ForecastStrategy projects daily revenue over a horizon
type ForecastStrategy interface {
	Strategy
	// MinPoints returns the minimum number of daily points needed to fit
	MinPoints() int
	// Forecast fits the model and projects the horizon. It never panics on
	// degenerate input; failures are reported through the Outcome.
	Forecast(ctx context.Context, input ForecastInput) Outcome
}
