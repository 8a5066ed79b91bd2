package analytics

import (
	"fmt"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Critical alert types
const (
	AlertSalesCollapse       = "SALES_COLLAPSE"
	AlertExpensesExceed      = "EXPENSES_EXCEED_REVENUE"
	AlertThinMargin          = "THIN_MARGIN"
	AlertSalesSilence        = "SALES_SILENCE"
	AlertClientConcentration = "CLIENT_CONCENTRATION"
)

const (
	collapseMinRecords        = 14
	collapseDropLimitPercent  = 70
	thinMarginLimitPercent    = 5
	silenceMaxDays            = 10
	concentrationLimitPercent = 80
)

// AlertInput is what the critical alert rules evaluate
type AlertInput struct {
	Sales []ledger.SaleRecord
	// Expenses is the merged manual plus allocated expense context
	Expenses *ExpenseContext
	// AsOf is the reference date; zero means now
	AsOf time.Time
}

// EvaluateCriticalAlerts checks every rule independently. A rule that fires
// yields one alert stamped with the reference time.
func EvaluateCriticalAlerts(in AlertInput) []CriticalAlert {
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	revenue := decimal.Zero
	for _, s := range in.Sales {
		revenue = revenue.Add(s.Total)
	}
	expenses := decimal.Zero
	if in.Expenses != nil {
		expenses = in.Expenses.PostSaleTotal
	}

	out := make([]CriticalAlert, 0)
	add := func(kind, title, desc string, sev Severity) {
		out = append(out, CriticalAlert{Type: kind, Title: title, Description: desc, Severity: sev, DetectedAt: asOf})
	}

	if a, ok := salesCollapse(in.Sales, asOf); ok {
		add(AlertSalesCollapse, "Sales collapse", a, SeverityHigh)
	}

	if expenses.GreaterThan(revenue) {
		add(AlertExpensesExceed, "Expenses exceed revenue",
			fmt.Sprintf("Post-sale expenses of %s exceed revenue of %s by %s",
				formatDecimal(expenses), formatDecimal(revenue), formatDecimal(expenses.Sub(revenue))),
			SeverityHigh)
	}

	if revenue.IsPositive() {
		marginPct := revenue.Sub(expenses).Div(revenue).Mul(hundred)
		if marginPct.IsPositive() && marginPct.LessThan(decimal.NewFromInt(thinMarginLimitPercent)) {
			f, _ := marginPct.Float64()
			add(AlertThinMargin, "Thin margin",
				fmt.Sprintf("Operating margin is only %s of revenue", formatPercent(f)),
				SeverityMedium)
		}
	}

	if last, ok := lastSaleDay(in.Sales); ok {
		idle := daysBetween(last, asOf)
		if idle > silenceMaxDays {
			add(AlertSalesSilence, "Sales silence",
				fmt.Sprintf("No sales recorded for %d days (last sale on %s)", idle, last.Format(time.DateOnly)),
				SeverityHigh)
		}
	}

	if client, share, ok := topClientShare(in.Sales, revenue); ok &&
		share.GreaterThan(decimal.NewFromInt(concentrationLimitPercent)) {
		f, _ := share.Float64()
		add(AlertClientConcentration, "Client concentration",
			fmt.Sprintf("%s accounts for %s of revenue", titleName(client), formatPercent(f)),
			SeverityMedium)
	}

	return out
}

// salesCollapse compares the 7 days ending at asOf with the 7 days before
func salesCollapse(sales []ledger.SaleRecord, asOf time.Time) (string, bool) {
	if len(sales) < collapseMinRecords {
		return "", false
	}
	end := ledger.TruncateDay(asOf)
	recentStart := end.AddDate(0, 0, -6)
	priorStart := end.AddDate(0, 0, -13)

	recent, prior := decimal.Zero, decimal.Zero
	for _, s := range sales {
		d := s.Day()
		switch {
		case d.After(end) || d.Before(priorStart):
		case d.Before(recentStart):
			prior = prior.Add(s.Total)
		default:
			recent = recent.Add(s.Total)
		}
	}
	if !prior.IsPositive() {
		return "", false
	}
	drop := prior.Sub(recent).Div(prior).Mul(hundred)
	if !drop.GreaterThan(decimal.NewFromInt(collapseDropLimitPercent)) {
		return "", false
	}
	f, _ := drop.Float64()
	return fmt.Sprintf("Revenue of the last 7 days (%s) fell %s against the previous 7 days (%s)",
		formatDecimal(recent), formatPercent(f), formatDecimal(prior)), true
}

func lastSaleDay(sales []ledger.SaleRecord) (time.Time, bool) {
	var last time.Time
	for _, s := range sales {
		if s.Date.After(last) {
			last = s.Date
		}
	}
	return ledger.TruncateDay(last), !last.IsZero()
}

// topClientShare returns the largest client share of revenue in percent
func topClientShare(sales []ledger.SaleRecord, revenue decimal.Decimal) (string, decimal.Decimal, bool) {
	if !revenue.IsPositive() {
		return "", decimal.Zero, false
	}
	ranked := RankClients(sales)
	if len(ranked) == 0 {
		return "", decimal.Zero, false
	}
	return ranked[0].Client, ranked[0].Revenue.Div(revenue).Mul(hundred), true
}
