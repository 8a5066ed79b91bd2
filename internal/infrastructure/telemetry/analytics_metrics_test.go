package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/aftersales/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestAnalyticsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := telemetry.NewAnalyticsMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAnalysis(ctx, telemetry.AnalysisObservation{
		Trigger:           "http",
		Duration:          120 * time.Millisecond,
		ForecastMethod:    "linear",
		ForecastAvailable: true,
		ProjectedRevenue:  15000,
		EnrichmentStatus:  "ok",
		Provider:          "gemini",
		Anomalies:         2,
		CriticalAlerts:    1,
	})
	m.RecordAnalysis(ctx, telemetry.AnalysisObservation{
		Trigger:        "scheduler",
		Duration:       time.Second,
		ForecastMethod: "none",
		Degraded:       true,
	})

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics["analytics.runs.total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["analytics.runs.degraded"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["analytics.forecasts.total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["analytics.enrichments.total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["analytics.anomalies.detected"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["analytics.critical_alerts.raised"]))

	hist, ok := metrics["analytics.run.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)

	gauge, ok := metrics["analytics.forecast.projected"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 15000.0, gauge.DataPoints[0].Value)
}

func TestAnalyticsMetrics_Nil(t *testing.T) {
	_, err := telemetry.NewAnalyticsMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)

	var m *telemetry.AnalyticsMetrics
	assert.NotPanics(t, func() {
		m.RecordAnalysis(context.Background(), telemetry.AnalysisObservation{Trigger: "http"})
	})
}
