package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/aftersales/internal/domain/analytics"
	"go.uber.org/zap"
)

// recordTimeout bounds the persistence of one bundle's findings
const recordTimeout = 5 * time.Second

// record forwards every finding of the bundle to the recorder. Failures and
// panics of the recorder are logged and never reach the caller.
func (s *Service) record(ctx context.Context, log *zap.Logger, bundle AnalysisBundle, local analytics.Findings, extra analytics.Enrichment) {
	if s.recorder == nil {
		return
	}
	records := insightRecords(bundle, local, extra)
	if len(records) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	failed := 0
	var lastErr error
	for _, rec := range records {
		if err := s.recordOne(ctx, rec); err != nil {
			failed++
			lastErr = err
		}
	}
	if failed > 0 {
		log.Warn("Failed to record insights",
			zap.Int("failed", failed),
			zap.Int("total", len(records)),
			zap.Error(lastErr),
		)
	}
}

func (s *Service) recordOne(ctx context.Context, rec analytics.InsightRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("insight recorder panicked: %v", r)
		}
	}()
	return s.recorder.Record(ctx, rec)
}

// insightRecords flattens a bundle into recorder entries. Local findings
// come first, provider findings are tagged with the provider name.
func insightRecords(bundle AnalysisBundle, local analytics.Findings, extra analytics.Enrichment) []analytics.InsightRecord {
	at := bundle.Timestamp
	base := func() map[string]any {
		return map[string]any{"analysis_id": bundle.AnalysisID}
	}
	var out []analytics.InsightRecord
	texts := func(kind, source string, items []string) {
		for _, item := range items {
			out = append(out, analytics.InsightRecord{
				Kind:       kind,
				Source:     source,
				Content:    item,
				Metadata:   base(),
				RecordedAt: at,
			})
		}
	}

	texts(analytics.KindTrend, analytics.SourceLocal, local.Insights.Trends)
	texts(analytics.KindAlert, analytics.SourceLocal, local.Insights.Alerts)
	texts(analytics.KindRecommendation, analytics.SourceLocal, local.Insights.Recommendations)
	texts(analytics.KindRecommendation, analytics.SourceLocal, local.Recommendations)
	texts(analytics.KindBranchRecommendation, analytics.SourceLocal, local.BranchRecommendations)
	texts(analytics.KindMixRecommendation, analytics.SourceLocal, local.MixRecommendations)

	if provider := bundle.EnrichmentStatus.Provider; bundle.EnrichmentStatus.Active {
		texts(analytics.KindTrend, provider, extra.Trends)
		texts(analytics.KindAlert, provider, extra.Alerts)
		texts(analytics.KindRecommendation, provider, extra.Recommendations)
		texts(analytics.KindBranchRecommendation, provider, extra.BranchRecommendations)
		texts(analytics.KindMixRecommendation, provider, extra.MixRecommendations)
		texts(analytics.KindOpportunity, provider, extra.Opportunities)
		texts(analytics.KindRisk, provider, extra.Risks)
	}

	for _, a := range bundle.Anomalies {
		meta := base()
		meta["category"] = a.Category
		meta["type"] = a.Type
		meta["period"] = a.Period
		meta["magnitude"] = a.Magnitude
		out = append(out, analytics.InsightRecord{
			Kind:       analytics.KindAnomaly,
			Source:     analytics.SourceLocal,
			Content:    a.Description,
			Metadata:   meta,
			RecordedAt: at,
		})
	}

	for _, a := range bundle.CriticalAlerts {
		meta := base()
		meta["type"] = a.Type
		meta["severity"] = string(a.Severity)
		meta["detected_at"] = a.DetectedAt.Format(time.RFC3339)
		out = append(out, analytics.InsightRecord{
			Kind:       analytics.KindCriticalAlert,
			Source:     analytics.SourceLocal,
			Content:    a.Title + ": " + a.Description,
			Metadata:   meta,
			RecordedAt: at,
		})
	}

	if f := bundle.Forecast; f.Method != "" {
		meta := base()
		meta["method"] = f.Method
		meta["available"] = f.Available
		meta["confidence"] = string(f.Confidence)
		meta["projected"] = f.Projected
		meta["working_days"] = f.WorkingDays
		content := f.Message
		switch {
		case f.Available:
			content = fmt.Sprintf("Projected revenue %.2f over %d working days (%s, %s confidence)",
				f.Projected, f.WorkingDays, f.Method, f.Confidence)
		case content == "":
			content = f.Method
		}
		out = append(out, analytics.InsightRecord{
			Kind:       analytics.KindForecast,
			Source:     analytics.SourceLocal,
			Content:    content,
			Metadata:   meta,
			RecordedAt: at,
		})
	}
	return out
}
