package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"gonum.org/v1/gonum/mat"
)

const (
	SeasonalStrategyName = "seasonal"
	seasonalMinPoints    = 30
	weeklyOrder          = 3
	ridgePenalty         = 1e-6
)

// SeasonalStrategy fits an additive model: linear trend plus a weekly
// Fourier seasonality, solved as a lightly regularized least squares
// problem.
type SeasonalStrategy struct {
	strategy.BaseStrategy
}

// NewSeasonalStrategy creates the strategy
func NewSeasonalStrategy(enabled bool) *SeasonalStrategy {
	return &SeasonalStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			SeasonalStrategyName,
			strategy.StrategyTypeForecast,
			"Additive trend with weekly seasonality",
		).WithAvailability(enabled),
	}
}

// MinPoints implements ForecastStrategy
func (s *SeasonalStrategy) MinPoints() int {
	return seasonalMinPoints
}

// Forecast implements ForecastStrategy
func (s *SeasonalStrategy) Forecast(ctx context.Context, in strategy.ForecastInput) strategy.Outcome {
	n := len(in.Series)
	if n < seasonalMinPoints {
		return strategy.Unavailable("not enough daily points")
	}
	origin := in.Series[0].Date
	span := math.Max(dayIndex(origin, in.Series[n-1].Date), 1)
	cols := 2 + 2*weeklyOrder

	x := mat.NewDense(n, cols, nil)
	for i, p := range in.Series {
		x.SetRow(i, features(p.Date, origin, span))
	}
	y := mat.NewVecDense(n, values(in.Series))

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for i := 0; i < cols; i++ {
		xtx.SetSym(i, i, xtx.At(i, i)+ridgePenalty)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	if err := ctx.Err(); err != nil {
		return strategy.FitFailed(err.Error())
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return strategy.FitFailed("normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return strategy.FitFailed(fmt.Sprintf("solve: %v", err))
	}

	daily := make([]float64, len(in.Horizon))
	for i, d := range in.Horizon {
		daily[i] = mat.Dot(mat.NewVecDense(cols, features(d, origin, span)), &beta)
	}
	if !allFinite(daily) {
		return strategy.FitFailed("non-finite forecast")
	}
	return strategy.Ok("trend+weekly", daily)
}

// features builds the regression row of a day: intercept, scaled trend and
// the weekly Fourier terms.
func features(d, origin time.Time, span float64) []float64 {
	row := make([]float64, 0, 2+2*weeklyOrder)
	row = append(row, 1, dayIndex(origin, d)/span)
	dow := float64(d.Weekday())
	for k := 1; k <= weeklyOrder; k++ {
		angle := 2 * math.Pi * float64(k) * dow / 7
		row = append(row, math.Sin(angle), math.Cos(angle))
	}
	return row
}
