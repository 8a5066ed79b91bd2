package analytics

import (
	"context"
	"time"
)

// Insight kinds forwarded to the recorder
const (
	KindTrend                = "trend"
	KindAlert                = "alert"
	KindRecommendation       = "recommendation"
	KindBranchRecommendation = "branch_recommendation"
	KindMixRecommendation    = "mix_recommendation"
	KindOpportunity          = "opportunity"
	KindRisk                 = "risk"
	KindAnomaly              = "anomaly"
	KindCriticalAlert        = "critical_alert"
	KindForecast             = "forecast"
)

// SourceLocal marks insights produced by the local rules
const SourceLocal = "local"

// InsightRecord is one persisted finding. Source is SourceLocal or the name
// of the enrichment provider.
type InsightRecord struct {
	Kind       string
	Source     string
	Content    string
	Metadata   map[string]any
	RecordedAt time.Time
}

// InsightRecorder persists findings for later review
type InsightRecorder interface {
	Record(ctx context.Context, record InsightRecord) error
}
