package forecast

import (
	"context"

	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"gonum.org/v1/gonum/stat"
)

const (
	LinearStrategyName = "linear"
	linearMinPoints    = 14
)

// LinearTrendStrategy fits revenue against the day index by least squares
// and extrapolates the line.
type LinearTrendStrategy struct {
	strategy.BaseStrategy
}

// NewLinearTrendStrategy creates the strategy
func NewLinearTrendStrategy(enabled bool) *LinearTrendStrategy {
	return &LinearTrendStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			LinearStrategyName,
			strategy.StrategyTypeForecast,
			"Linear trend regression of daily revenue on the day index",
		).WithAvailability(enabled),
	}
}

// MinPoints implements ForecastStrategy
func (s *LinearTrendStrategy) MinPoints() int {
	return linearMinPoints
}

// Forecast implements ForecastStrategy
func (s *LinearTrendStrategy) Forecast(ctx context.Context, in strategy.ForecastInput) strategy.Outcome {
	if len(in.Series) < linearMinPoints {
		return strategy.Unavailable("not enough daily points")
	}
	origin := in.Series[0].Date
	x := make([]float64, len(in.Series))
	for i, p := range in.Series {
		x[i] = dayIndex(origin, p.Date)
	}
	alpha, beta := stat.LinearRegression(x, values(in.Series), nil, false)
	if !allFinite([]float64{alpha, beta}) {
		return strategy.FitFailed("degenerate regression")
	}

	daily := make([]float64, len(in.Horizon))
	for i, d := range in.Horizon {
		daily[i] = alpha + beta*dayIndex(origin, d)
	}
	return strategy.Ok("linear", daily)
}
