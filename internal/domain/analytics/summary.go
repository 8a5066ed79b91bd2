package analytics

import (
	"sort"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// summaryTopClients is how many clients per branch the summary carries
const summaryTopClients = 5

// Summary is the condensed view of a bundle handed to a narrative provider.
// It holds aggregates only, never individual ledger rows. AsOf is kept at
// day precision so identical ledgers render identical prompts within a day.
type Summary struct {
	PeriodStart  *time.Time                 `json:"period_start,omitempty"`
	PeriodEnd    *time.Time                 `json:"period_end,omitempty"`
	AsOf         time.Time                  `json:"as_of"`
	Totals       SummaryTotals              `json:"totals"`
	TopClients   map[string][]ClientRevenue `json:"top_clients_by_branch"`
	Branches     []BranchResult             `json:"branches"`
	Productivity *ProductivityContext       `json:"productivity,omitempty"`
	Forecast     ForecastHeadline           `json:"forecast"`
	Anomalies    int                        `json:"anomalies"`
	Alerts       []string                   `json:"critical_alerts"`
}

// SummaryTotals are the global figures of the period
type SummaryTotals struct {
	Sales           int             `json:"sales"`
	Revenue         decimal.Decimal `json:"revenue"`
	ServiceRevenue  decimal.Decimal `json:"service_revenue"`
	PartsRevenue    decimal.Decimal `json:"parts_revenue"`
	Expenses        decimal.Decimal `json:"expenses"`
	AllocatedCosts  decimal.Decimal `json:"allocated_costs"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
	OperatingResult decimal.Decimal `json:"operating_result"`
	Absorption      decimal.Decimal `json:"absorption_factor"`
}

// BranchResult is one branch line of the summary
type BranchResult struct {
	Branch          string          `json:"branch"`
	Revenue         decimal.Decimal `json:"revenue"`
	OperatingResult decimal.Decimal `json:"operating_result"`
	Absorption      decimal.Decimal `json:"absorption_factor"`
}

// ForecastHeadline is the part of the forecast worth narrating
type ForecastHeadline struct {
	Projected  float64 `json:"projected"`
	Available  bool    `json:"available"`
	Confidence string  `json:"confidence"`
	Method     string  `json:"method"`
}

// SummaryInput is what BuildSummary condenses
type SummaryInput struct {
	Sales        []ledger.SaleRecord
	Expenses     *ExpenseContext
	Global       RatioSet
	Branches     []RatioSet
	Range        *ledger.DateRange
	AsOf         time.Time
	Productivity *ProductivityContext
	Forecast     ForecastHeadline
	Anomalies    []AnomalyRecord
	Alerts       []CriticalAlert
}

// BuildSummary condenses the computed bundle parts into a Summary
func BuildSummary(in SummaryInput) Summary {
	service, parts := channelRevenue(in.Sales)
	s := Summary{
		AsOf: ledger.TruncateDay(in.AsOf),
		Totals: SummaryTotals{
			Sales:           len(in.Sales),
			Revenue:         in.Global.Revenue,
			ServiceRevenue:  service,
			PartsRevenue:    parts,
			MarginPercent:   in.Global.MarginPercent().Round(1),
			OperatingResult: in.Global.OperatingResult,
			Absorption:      in.Global.AbsorptionFactor.Round(1),
		},
		TopClients:   TopClientsByBranch(in.Sales, summaryTopClients),
		Branches:     make([]BranchResult, 0, len(in.Branches)),
		Productivity: in.Productivity,
		Forecast:     in.Forecast,
		Anomalies:    len(in.Anomalies),
		Alerts:       make([]string, 0, len(in.Alerts)),
	}
	if in.Range != nil {
		start, end := in.Range.Start, in.Range.End
		s.PeriodStart, s.PeriodEnd = &start, &end
	}
	if in.Expenses != nil {
		s.Totals.Expenses = in.Expenses.PostSaleTotal
		s.Totals.AllocatedCosts = in.Expenses.AutomaticTotal
	}
	for _, b := range in.Branches {
		s.Branches = append(s.Branches, BranchResult{
			Branch:          b.Scope,
			Revenue:         b.Revenue,
			OperatingResult: b.OperatingResult,
			Absorption:      b.AbsorptionFactor.Round(1),
		})
	}
	sort.Slice(s.Branches, func(i, j int) bool { return s.Branches[i].Branch < s.Branches[j].Branch })
	for _, a := range in.Alerts {
		s.Alerts = append(s.Alerts, a.Type)
	}
	return s
}
