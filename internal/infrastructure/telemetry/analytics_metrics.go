package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// AnalysisObservation is what one analysis run reports to metrics
type AnalysisObservation struct {
	Trigger           string // http, scheduler
	Duration          time.Duration
	ForecastMethod    string
	ForecastAvailable bool
	EnrichmentStatus  string
	Provider          string
	Anomalies         int
	CriticalAlerts    int
	Degraded          bool
	ProjectedRevenue  float64
}

// AnalyticsMetrics records the engine's own counters and timings.
// A nil *AnalyticsMetrics is valid and records nothing.
type AnalyticsMetrics struct {
	analyses       *Counter
	degraded       *Counter
	duration       *Histogram
	forecasts      *Counter
	enrichments    *Counter
	anomalies      *Counter
	criticalAlerts *Counter
	projectedGauge *FloatGauge
}

// NewAnalyticsMetrics creates the analytics instruments on meter
func NewAnalyticsMetrics(meter metric.Meter) (*AnalyticsMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &AnalyticsMetrics{}
	var err error
	if m.analyses, err = NewCounter(meter, "analytics.runs.total", "Number of analysis bundles produced", "{run}"); err != nil {
		return nil, err
	}
	if m.degraded, err = NewCounter(meter, "analytics.runs.degraded", "Analysis runs that fell back to an empty ledger", "{run}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "analytics.run.duration",
		Description: "Wall time of one analysis run",
		Unit:        "s",
		Boundaries:  AnalysisDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.forecasts, err = NewCounter(meter, "analytics.forecasts.total", "Forecasts by method and outcome", "{forecast}"); err != nil {
		return nil, err
	}
	if m.enrichments, err = NewCounter(meter, "analytics.enrichments.total", "Narrative enrichment attempts by status", "{attempt}"); err != nil {
		return nil, err
	}
	if m.anomalies, err = NewCounter(meter, "analytics.anomalies.detected", "Detected revenue anomalies", "{anomaly}"); err != nil {
		return nil, err
	}
	if m.criticalAlerts, err = NewCounter(meter, "analytics.critical_alerts.raised", "Raised critical alerts", "{alert}"); err != nil {
		return nil, err
	}
	if m.projectedGauge, err = NewFloatGauge(meter, "analytics.forecast.projected", "Latest projected revenue for the horizon", "USD"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAnalysis records one finished run
func (m *AnalyticsMetrics) RecordAnalysis(ctx context.Context, obs AnalysisObservation) {
	if m == nil {
		return
	}
	trigger := AttrTrigger.String(obs.Trigger)
	m.analyses.Inc(ctx, trigger)
	m.duration.RecordDuration(ctx, obs.Duration, trigger)
	if obs.Degraded {
		m.degraded.Inc(ctx, trigger)
	}

	outcome := "unavailable"
	if obs.ForecastAvailable {
		outcome = "available"
		m.projectedGauge.Record(ctx, obs.ProjectedRevenue, AttrForecastMethod.String(obs.ForecastMethod))
	}
	m.forecasts.Inc(ctx, AttrForecastMethod.String(obs.ForecastMethod), AttrForecastOutcome.String(outcome))

	if obs.EnrichmentStatus != "" {
		attrs := []attribute.KeyValue{AttrEnrichmentStatus.String(obs.EnrichmentStatus)}
		if obs.Provider != "" {
			attrs = append(attrs, AttrEnrichmentSource.String(obs.Provider))
		}
		m.enrichments.Inc(ctx, attrs...)
	}
	if obs.Anomalies > 0 {
		m.anomalies.Add(ctx, int64(obs.Anomalies), trigger)
	}
	if obs.CriticalAlerts > 0 {
		m.criticalAlerts.Add(ctx, int64(obs.CriticalAlerts), trigger)
	}
}
