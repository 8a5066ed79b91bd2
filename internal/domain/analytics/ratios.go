package analytics

import (
	"sort"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Segment selects which revenue stream and which cost share a ratio covers
type Segment string

const (
	SegmentService  Segment = "SERVICE"
	SegmentParts    Segment = "PARTS"
	SegmentPostSale Segment = "POSTSALE"
)

// ScopeGlobal is the scope label of ratios that cover every branch
const ScopeGlobal = "GLOBAL"

var hundred = decimal.NewFromInt(100)

// RatioSet holds the cost-coverage ratios of one scope and segment
type RatioSet struct {
	Scope                   string          `json:"scope"`
	Segment                 Segment         `json:"segment"`
	Revenue                 decimal.Decimal `json:"revenue"`
	FixedCost               decimal.Decimal `json:"fixed_cost"`
	VariableCost            decimal.Decimal `json:"variable_cost"`
	AbsorptionFactor        decimal.Decimal `json:"absorption_factor"`
	Margin                  decimal.Decimal `json:"margin"`
	OperatingResult         decimal.Decimal `json:"operating_result"`
	ContributionMarginRatio decimal.Decimal `json:"contribution_margin_ratio"`
	BreakEvenRevenue        decimal.Decimal `json:"break_even_revenue"`
	// BreakEvenDefined is false when the contribution margin is not
	// positive; BreakEvenRevenue is then zero and means "undefined".
	BreakEvenDefined bool `json:"break_even_defined"`
}

// TotalCost returns fixed plus variable cost
func (r RatioSet) TotalCost() decimal.Decimal {
	return r.FixedCost.Add(r.VariableCost)
}

// MarginPercent returns operating result over revenue in percent, 0 when
// revenue is not positive.
func (r RatioSet) MarginPercent() decimal.Decimal {
	if !r.Revenue.IsPositive() {
		return decimal.Zero
	}
	return r.OperatingResult.Div(r.Revenue).Mul(hundred)
}

// CalculateRatios computes the ratios of one segment. When branch is not
// empty both ledgers are restricted to that branch first.
func CalculateRatios(sales []ledger.SaleRecord, expenses []ledger.ExpenseRecord, segment Segment, branch string) RatioSet {
	rs := RatioSet{Scope: ScopeGlobal, Segment: segment}
	if branch != "" {
		rs.Scope = branch
	}

	for _, s := range sales {
		if branch != "" && s.Branch != branch {
			continue
		}
		if includesChannel(segment, s.Channel) {
			rs.Revenue = rs.Revenue.Add(s.Total)
		}
	}

	for _, e := range expenses {
		if branch != "" && e.Branch != branch {
			continue
		}
		amount := segmentCost(segment, e)
		if e.IsFixed() {
			rs.FixedCost = rs.FixedCost.Add(amount)
		} else {
			rs.VariableCost = rs.VariableCost.Add(amount)
		}
	}

	if rs.FixedCost.IsPositive() {
		rs.AbsorptionFactor = rs.Revenue.Div(rs.FixedCost).Mul(hundred)
	}
	rs.Margin = rs.Revenue.Sub(rs.VariableCost)
	rs.OperatingResult = rs.Margin.Sub(rs.FixedCost)

	if rs.Revenue.IsPositive() {
		rs.ContributionMarginRatio = rs.Margin.Div(rs.Revenue)
	}
	if rs.ContributionMarginRatio.IsPositive() {
		rs.BreakEvenRevenue = rs.FixedCost.Div(rs.ContributionMarginRatio)
		rs.BreakEvenDefined = true
	}
	return rs
}

// CalculateBranchRatios returns one RatioSet per branch seen in either
// ledger, ordered by branch name.
func CalculateBranchRatios(sales []ledger.SaleRecord, expenses []ledger.ExpenseRecord, segment Segment) []RatioSet {
	out := make([]RatioSet, 0)
	for _, b := range Branches(sales, expenses) {
		out = append(out, CalculateRatios(sales, expenses, segment, b))
	}
	return out
}

// Branches returns the sorted set of branch names in the ledgers
func Branches(sales []ledger.SaleRecord, expenses []ledger.ExpenseRecord) []string {
	seen := make(map[string]struct{})
	for _, s := range sales {
		seen[s.Branch] = struct{}{}
	}
	for _, e := range expenses {
		seen[e.Branch] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for b := range seen {
		if b == "" {
			continue
		}
		names = append(names, b)
	}
	sort.Strings(names)
	return names
}

func includesChannel(segment Segment, c ledger.Channel) bool {
	switch segment {
	case SegmentService:
		return c == ledger.ChannelService
	case SegmentParts:
		return c == ledger.ChannelParts
	default:
		return true
	}
}

func segmentCost(segment Segment, e ledger.ExpenseRecord) decimal.Decimal {
	switch segment {
	case SegmentService:
		return e.ServiceAmount
	case SegmentParts:
		return e.PartsAmount
	default:
		return e.AllocatedTotal()
	}
}
