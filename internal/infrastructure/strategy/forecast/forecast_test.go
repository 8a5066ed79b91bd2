package forecast

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday

func seriesOf(values []float64) []strategy.DailyPoint {
	out := make([]strategy.DailyPoint, len(values))
	for i, v := range values {
		out[i] = strategy.DailyPoint{Date: start.AddDate(0, 0, i), Revenue: v}
	}
	return out
}

func horizonAfter(series []strategy.DailyPoint, n int) []time.Time {
	last := series[len(series)-1].Date
	out := make([]time.Time, n)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}

func TestLinearTrendStrategy(t *testing.T) {
	s := NewLinearTrendStrategy(true)
	assert.Equal(t, LinearStrategyName, s.Name())
	assert.Equal(t, strategy.StrategyTypeForecast, s.Type())
	assert.Equal(t, 14, s.MinPoints())
	assert.True(t, s.Available())

	values := make([]float64, 20)
	for i := range values {
		values[i] = 10 + 2*float64(i)
	}
	series := seriesOf(values)

	out := s.Forecast(context.Background(), strategy.ForecastInput{Series: series, Horizon: horizonAfter(series, 30)})

	require.True(t, out.IsOK(), out.Reason)
	require.Len(t, out.Daily, 30)
	assert.InDelta(t, 50.0, out.Daily[0], 1e-6)
	assert.InDelta(t, 108.0, out.Daily[29], 1e-6)
}

func TestLinearTrendStrategy_TooShort(t *testing.T) {
	s := NewLinearTrendStrategy(true)
	series := seriesOf([]float64{1, 2, 3})
	out := s.Forecast(context.Background(), strategy.ForecastInput{Series: series, Horizon: horizonAfter(series, 3)})
	assert.Equal(t, strategy.OutcomeUnavailable, out.Status)
}

func TestSeasonalStrategy_WeeklyPattern(t *testing.T) {
	s := NewSeasonalStrategy(true)
	assert.Equal(t, 30, s.MinPoints())

	values := make([]float64, 42)
	for i := range values {
		values[i] = 100
		if start.AddDate(0, 0, i).Weekday() == time.Saturday {
			values[i] = 50
		}
	}
	series := seriesOf(values)
	horizon := horizonAfter(series, 30)

	out := s.Forecast(context.Background(), strategy.ForecastInput{Series: series, Horizon: horizon})

	require.True(t, out.IsOK(), out.Reason)
	require.Len(t, out.Daily, 30)
	for i, d := range horizon {
		want := 100.0
		if d.Weekday() == time.Saturday {
			want = 50
		}
		assert.InDelta(t, want, out.Daily[i], 1.0, "day %s", d.Format(time.DateOnly))
	}
}

func TestSeasonalStrategy_Disabled(t *testing.T) {
	s := NewSeasonalStrategy(false)
	assert.False(t, s.Available())
}

func TestARIMAStrategy_ConstantSeries(t *testing.T) {
	s := NewARIMAStrategy(true)
	assert.Equal(t, 14, s.MinPoints())

	values := make([]float64, 20)
	for i := range values {
		values[i] = 100
	}
	series := seriesOf(values)

	out := s.Forecast(context.Background(), strategy.ForecastInput{Series: series, Horizon: horizonAfter(series, 30)})

	require.True(t, out.IsOK(), out.Reason)
	assert.Equal(t, "ARIMA(1,1,1)", out.Model)
	for _, v := range out.Daily {
		assert.InDelta(t, 100.0, v, 1e-3)
	}
}

func TestARIMAStrategy_AutoregressiveSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 60)
	values[0] = 100
	for i := 1; i < len(values); i++ {
		values[i] = 50 + 0.5*values[i-1] + rng.NormFloat64()*5
	}
	series := seriesOf(values)

	out := NewARIMAStrategy(true).Forecast(context.Background(), strategy.ForecastInput{Series: series, Horizon: horizonAfter(series, 30)})

	require.True(t, out.IsOK(), out.Reason)
	assert.Contains(t, []string{"ARIMA(1,1,1)", "ARIMA(1,0,0)"}, out.Model)
	require.Len(t, out.Daily, 30)
	for _, v := range out.Daily {
		assert.False(t, math.IsNaN(v))
		assert.Greater(t, v, 50.0)
		assert.Less(t, v, 150.0)
	}
}

func TestARIMAStrategy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series := seriesOf(make([]float64, 20))
	out := NewARIMAStrategy(true).Forecast(ctx, strategy.ForecastInput{Series: series, Horizon: horizonAfter(series, 5)})

	assert.Equal(t, strategy.OutcomeFitFailed, out.Status)
	assert.Contains(t, out.Reason, "canceled")
}

func TestCSS(t *testing.T) {
	z := []float64{1, 2, 3}
	sse, last := css(z, arimaModel{c: 1, phi: 1})
	assert.Zero(t, sse)
	assert.Zero(t, last)

	sse, last = css(z, arimaModel{})
	assert.Equal(t, 13.0, sse)
	assert.Equal(t, 3.0, last)
}
