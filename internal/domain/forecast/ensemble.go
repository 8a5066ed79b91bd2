package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"gonum.org/v1/gonum/stat"
)

// StrategySource lists the forecast strategies the ensemble may use
type StrategySource interface {
	ForecastStrategies() []strategy.ForecastStrategy
}

// Strategies is a fixed StrategySource
type Strategies []strategy.ForecastStrategy

// ForecastStrategies implements StrategySource
func (s Strategies) ForecastStrategies() []strategy.ForecastStrategy {
	return s
}

// Ensemble combines independent forecast strategies into one projection
type Ensemble struct {
	cfg    Config
	source StrategySource
}

// NewEnsemble creates an ensemble. A nil source means only the simple
// average method is available.
func NewEnsemble(cfg Config, source StrategySource) *Ensemble {
	if source == nil {
		source = Strategies(nil)
	}
	return &Ensemble{cfg: cfg.withDefaults(), source: source}
}

// Config returns the effective configuration
func (e *Ensemble) Config() Config {
	return e.cfg
}

// Forecast projects revenue for the horizon that starts the day after the
// last sale. It never fails: degenerate input yields a "needs more data"
// result.
func (e *Ensemble) Forecast(ctx context.Context, sales []ledger.SaleRecord) Result {
	series := DailySeries(sales)
	res := Result{
		Confidence:      ConfidenceLow,
		Models:          map[string]float64{},
		ModelDailyRates: map[string]float64{},
		Outcomes:        []strategy.Outcome{},
		DataPoints:      len(series),
	}
	if len(series) == 0 {
		res.Method = MethodNeedsMoreData
		res.Message = "no sales in the period"
		return res
	}

	horizon := Horizon(series[len(series)-1].Date.AddDate(0, 0, 1), e.cfg.HorizonDays)
	res.HorizonStart = horizon[0]
	res.HorizonEnd = horizon[len(horizon)-1]
	res.WorkingDays = WorkingDays(horizon)

	if len(series) < e.cfg.MinModelPoints {
		e.useSimpleAverage(&res, series)
		res.Message = fmt.Sprintf("%d daily points; models need at least %d", len(series), e.cfg.MinModelPoints)
		return res
	}

	input := strategy.ForecastInput{Series: series, Horizon: horizon}
	var names []string
	for _, s := range e.source.ForecastStrategies() {
		outcome := e.run(ctx, s, input)
		res.Outcomes = append(res.Outcomes, outcome)
		if !outcome.IsOK() {
			continue
		}
		value := ApplyMask(outcome.Daily, horizon, e.cfg.SaturdayWeight)
		res.Models[s.Name()] = value
		if res.WorkingDays > 0 {
			res.ModelDailyRates[s.Name()] = value / float64(res.WorkingDays)
		}
		names = append(names, s.Name())
	}

	if len(names) == 0 {
		e.useSimpleAverage(&res, series)
		res.Message = "no forecast model could be fitted"
		return res
	}

	values := make([]float64, 0, len(names))
	for _, n := range names {
		values = append(values, res.Models[n])
	}
	sort.Strings(names)

	res.Available = true
	res.Projected = mean(values)
	res.Method = MethodEnsemble + ": " + strings.Join(names, ", ")
	res.Confidence = e.agreement(values)
	if res.WorkingDays > 0 {
		res.DailyRate = res.Projected / float64(res.WorkingDays)
	}
	return res
}

func (e *Ensemble) useSimpleAverage(res *Result, series []strategy.DailyPoint) {
	value, daily, confidence := simpleAverage(series, res.WorkingDays, e.cfg)
	res.Available = true
	res.Method = MethodSimpleAverage
	res.Projected = value
	res.DailyRate = daily
	res.Confidence = confidence
}

// agreement labels how closely the model outputs agree. Two outputs are
// compared by |a-b| / ((a+b)/2); three or more by their coefficient of
// variation (sample stdev / mean).
func (e *Ensemble) agreement(values []float64) Confidence {
	if len(values) == 1 {
		return ConfidenceMedium
	}
	m := mean(values)
	if m <= 0 {
		return ConfidenceLow
	}
	var dispersion float64
	if len(values) == 2 {
		dispersion = math.Abs(values[0]-values[1]) / m
	} else {
		dispersion = stat.StdDev(values, nil) / m
	}
	switch {
	case dispersion < e.cfg.HighAgreement:
		return ConfidenceHigh
	case dispersion < e.cfg.MediumAgreement:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// run executes one strategy under the model timeout and normalizes its
// outcome.
func (e *Ensemble) run(ctx context.Context, s strategy.ForecastStrategy, input strategy.ForecastInput) (outcome strategy.Outcome) {
	defer func() { outcome.Strategy = s.Name() }()

	if !s.Available() {
		return strategy.Unavailable("disabled")
	}
	if len(input.Series) < s.MinPoints() {
		return strategy.Unavailable(fmt.Sprintf("requires at least %d daily points, have %d", s.MinPoints(), len(input.Series)))
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.ModelTimeout)
	defer cancel()

	done := make(chan strategy.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- strategy.FitFailed(fmt.Sprintf("panic: %v", r))
			}
		}()
		done <- s.Forecast(runCtx, input)
	}()

	select {
	case <-runCtx.Done():
		return strategy.FitFailed("timeout: " + runCtx.Err().Error())
	case o := <-done:
		if o.IsOK() {
			if len(o.Daily) != len(input.Horizon) {
				return strategy.FitFailed(fmt.Sprintf("returned %d values for a %d day horizon", len(o.Daily), len(input.Horizon)))
			}
			for _, v := range o.Daily {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return strategy.FitFailed("non-finite forecast")
				}
			}
		}
		return o
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
