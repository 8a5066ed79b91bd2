package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	ARIMAStrategyName = "arima"
	arimaMinPoints    = 14
	arimaMaxEvals     = 4000
	stationarityBound = 0.999
)

// order is an ARIMA(p,d,q) order with p fixed at 1
type order struct {
	d, q int
}

func (o order) String() string {
	return fmt.Sprintf("ARIMA(1,%d,%d)", o.d, o.q)
}

// ARIMAStrategy fits ARIMA(1,1,1) by conditional sum of squares and falls
// back to ARIMA(1,0,0) when the first fit fails.
type ARIMAStrategy struct {
	strategy.BaseStrategy
	orders []order
}

// NewARIMAStrategy creates the strategy
func NewARIMAStrategy(enabled bool) *ARIMAStrategy {
	return &ARIMAStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			ARIMAStrategyName,
			strategy.StrategyTypeForecast,
			"Autoregressive integrated moving average",
		).WithAvailability(enabled),
		orders: []order{{d: 1, q: 1}, {d: 0, q: 0}},
	}
}

// MinPoints implements ForecastStrategy
func (s *ARIMAStrategy) MinPoints() int {
	return arimaMinPoints
}

// Forecast implements ForecastStrategy
func (s *ARIMAStrategy) Forecast(ctx context.Context, in strategy.ForecastInput) strategy.Outcome {
	if len(in.Series) < arimaMinPoints {
		return strategy.Unavailable("not enough daily points")
	}
	y := values(in.Series)

	var reasons []string
	for _, o := range s.orders {
		if err := ctx.Err(); err != nil {
			return strategy.FitFailed(err.Error())
		}
		daily, err := fitAndForecast(y, o, len(in.Horizon))
		if err == nil {
			return strategy.Ok(o.String(), daily)
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", o, err))
	}
	return strategy.FitFailed(fmt.Sprint(reasons))
}

type arimaModel struct {
	c, phi, theta float64
}

func fitAndForecast(y []float64, o order, steps int) ([]float64, error) {
	z := y
	if o.d == 1 {
		z = make([]float64, len(y)-1)
		for i := 1; i < len(y); i++ {
			z[i-1] = y[i] - y[i-1]
		}
	}
	if len(z) < 3 {
		return nil, fmt.Errorf("series too short")
	}

	m, residual, err := fit(z, o.q)
	if err != nil {
		return nil, err
	}

	out := make([]float64, steps)
	prevZ, prevE := z[len(z)-1], residual
	level := y[len(y)-1]
	for i := 0; i < steps; i++ {
		next := m.c + m.phi*prevZ + m.theta*prevE
		prevZ, prevE = next, 0
		if o.d == 1 {
			level += next
			out[i] = level
		} else {
			out[i] = next
		}
	}
	if !allFinite(out) {
		return nil, fmt.Errorf("non-finite forecast")
	}
	return out, nil
}

// fit estimates c, phi and theta and returns the last in-sample residual
func fit(z []float64, q int) (arimaModel, float64, error) {
	unpack := func(x []float64) arimaModel {
		m := arimaModel{c: x[0], phi: x[1]}
		if q == 1 {
			m.theta = x[2]
		}
		return m
	}

	scale := math.Max(stat.Variance(z, nil), 1)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			m := unpack(x)
			if math.Abs(m.phi) >= stationarityBound || math.Abs(m.theta) >= stationarityBound {
				return math.Inf(1)
			}
			sse, _ := css(z, m)
			return sse / scale
		},
	}

	initial := []float64{stat.Mean(z, nil), 0}
	if q == 1 {
		initial = append(initial, 0)
	}
	result, err := optimize.Minimize(problem, initial, &optimize.Settings{FuncEvaluations: arimaMaxEvals}, &optimize.NelderMead{})
	if err != nil {
		return arimaModel{}, 0, fmt.Errorf("optimize: %w", err)
	}
	if !allFinite(result.X) || math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		return arimaModel{}, 0, fmt.Errorf("no finite solution")
	}
	m := unpack(result.X)
	_, last := css(z, m)
	return m, last, nil
}

// css returns the conditional sum of squared residuals and the last residual
func css(z []float64, m arimaModel) (float64, float64) {
	sse, e := 0.0, 0.0
	for t := 1; t < len(z); t++ {
		pred := m.c + m.phi*z[t-1] + m.theta*e
		e = z[t] - pred
		sse += e * e
	}
	return sse, e
}
