package analytics

import (
	"time"

	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/domain/forecast"
	"github.com/erp/aftersales/internal/domain/ledger"
)

// AnalysisRequest carries in-memory ledgers to analyze
type AnalysisRequest struct {
	Sales []ledger.SaleRecord
	// Expenses is the manual expense ledger; automatic allocations are
	// added by the service unless ExpenseContext is supplied
	Expenses       []ledger.ExpenseRecord
	ExpenseContext *analytics.ExpenseContext
	Range          *ledger.DateRange
	Branch         string
	// AsOf is the reference date of the time-based rules; zero means now
	AsOf         time.Time
	Productivity *analytics.ProductivityContext
}

// AnalysisQuery selects the ledgers to load from the repositories
type AnalysisQuery struct {
	Range  *ledger.DateRange
	Branch string
	AsOf   time.Time
}

// Filter converts the query into a ledger filter
func (q AnalysisQuery) Filter() ledger.Filter {
	return ledger.Filter{Range: q.Range, Branch: q.Branch}
}

// RatioReport holds the global and per-branch ratios of a scope
type RatioReport struct {
	Global   analytics.RatioSet   `json:"global"`
	Branches []analytics.RatioSet `json:"branches"`
}

// AllocationReport holds the synthetic cost entries and the merged totals
type AllocationReport struct {
	Allocated []ledger.ExpenseRecord    `json:"allocated"`
	Totals    *analytics.ExpenseContext `json:"totals"`
}

// AnalysisBundle is the full result of one analysis run
type AnalysisBundle struct {
	AnalysisID            string                     `json:"analysis_id"`
	Insights              analytics.Insights         `json:"insights"`
	Forecast              forecast.Result            `json:"forecast"`
	Anomalies             []analytics.AnomalyRecord  `json:"anomalies"`
	CriticalAlerts        []analytics.CriticalAlert  `json:"critical_alerts"`
	Recommendations       []string                   `json:"recommendations"`
	BranchRecommendations []string                   `json:"branch_recommendations"`
	MixRecommendations    []string                   `json:"mix_recommendations"`
	Opportunities         []string                   `json:"opportunities"`
	Risks                 []string                   `json:"risks"`
	EnrichmentStatus      analytics.EnrichmentStatus `json:"enrichment_status"`
	Ratios                RatioReport                `json:"ratios"`
	Expenses              *analytics.ExpenseContext  `json:"expenses"`
	// Degraded is set when the ledgers could not be loaded and the bundle
	// was built from empty input
	Degraded  bool      `json:"degraded"`
	Timestamp time.Time `json:"timestamp"`
}

// emptyBundle returns a bundle whose lists are all non-nil
func emptyBundle(id string, now time.Time) AnalysisBundle {
	return AnalysisBundle{
		AnalysisID: id,
		Insights: analytics.Insights{
			Trends:          []string{},
			Alerts:          []string{},
			Recommendations: []string{},
		},
		Anomalies:             []analytics.AnomalyRecord{},
		CriticalAlerts:        []analytics.CriticalAlert{},
		Recommendations:       []string{},
		BranchRecommendations: []string{},
		MixRecommendations:    []string{},
		Opportunities:         []string{},
		Risks:                 []string{},
		Ratios:                RatioReport{Branches: []analytics.RatioSet{}},
		Timestamp:             now,
	}
}
