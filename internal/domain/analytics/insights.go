package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

const (
	mixDominanceFactor      = 1.5
	lowMarginPercent        = 10
	excellentMarginPercent  = 30
	idleRecommendationDays  = 7
	topClientsCount         = 5
	topClientsSharePercent  = 50
	branchImbalanceFactor   = 3
	serviceShareLowPercent  = 30
	serviceShareHighPercent = 80
	utilizationLowPercent   = 60
)

// ProductivityContext describes workshop capacity. It only annotates
// insights and never changes ratios.
type ProductivityContext struct {
	// LaborRevenue overrides the labor plus assistance revenue taken from
	// the service sales when positive
	LaborRevenue   decimal.Decimal `json:"labor_revenue"`
	Technicians    int             `json:"technicians"`
	HourlyTariff   decimal.Decimal `json:"hourly_tariff"`
	AvailableHours decimal.Decimal `json:"available_hours"`
}

// InsightInput gathers what the local rules look at
type InsightInput struct {
	Sales        []ledger.SaleRecord
	Expenses     *ExpenseContext
	Global       RatioSet
	Branches     []RatioSet
	AsOf         time.Time
	Productivity *ProductivityContext
}

// Findings are the locally derived lists of a bundle
type Findings struct {
	Insights              Insights
	Recommendations       []string
	BranchRecommendations []string
	MixRecommendations    []string
}

// BuildInsights applies the local trend, alert and recommendation rules
func BuildInsights(in InsightInput) Findings {
	f := Findings{
		Insights: Insights{
			Trends:          []string{},
			Alerts:          []string{},
			Recommendations: []string{},
		},
		Recommendations:       []string{},
		BranchRecommendations: []string{},
		MixRecommendations:    []string{},
	}
	if len(in.Sales) == 0 {
		return f
	}

	f.Insights.Trends = append(f.Insights.Trends, monthlyTrend(in.Sales)...)

	service, parts := channelRevenue(in.Sales)
	f.Insights.Trends = append(f.Insights.Trends, mixTrend(service, parts)...)
	f.MixRecommendations = append(f.MixRecommendations, mixRecommendation(service, parts)...)

	if in.Global.Revenue.IsPositive() {
		margin, _ := in.Global.MarginPercent().Float64()
		switch {
		case margin < lowMarginPercent:
			f.Insights.Alerts = append(f.Insights.Alerts,
				fmt.Sprintf("Low operating margin of %s; review variable costs and pricing", formatPercent(margin)))
		case margin > excellentMarginPercent:
			f.Insights.Trends = append(f.Insights.Trends,
				fmt.Sprintf("Excellent operating margin of %s", formatPercent(margin)))
		}
	}
	if in.Expenses != nil && in.Expenses.PostSaleTotal.GreaterThan(in.Global.Revenue) {
		f.Insights.Alerts = append(f.Insights.Alerts,
			fmt.Sprintf("Post-sale expenses (%s) are above revenue (%s)",
				formatDecimal(in.Expenses.PostSaleTotal), formatDecimal(in.Global.Revenue)))
	}

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	if last, ok := lastSaleDay(in.Sales); ok {
		if idle := daysBetween(last, asOf); idle > idleRecommendationDays {
			f.Insights.Recommendations = append(f.Insights.Recommendations,
				fmt.Sprintf("%d days without sales; contact recurring clients and review the pipeline", idle))
		}
	}

	f.Recommendations = append(f.Recommendations, concentrationRecommendation(in.Sales)...)
	f.Recommendations = append(f.Recommendations, branchImbalance(in.Branches)...)
	f.BranchRecommendations = append(f.BranchRecommendations, branchRecommendations(in.Branches)...)

	if in.Productivity != nil {
		trend, rec := productivityNotes(in.Sales, *in.Productivity)
		f.Insights.Trends = append(f.Insights.Trends, trend...)
		f.Insights.Recommendations = append(f.Insights.Recommendations, rec...)
	}
	return f
}

func monthlyTrend(sales []ledger.SaleRecord) []string {
	months := make(map[time.Time]decimal.Decimal)
	for _, s := range sales {
		d := s.Day()
		key := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		months[key] = months[key].Add(s.Total)
	}
	if len(months) < 2 {
		return nil
	}
	keys := make([]time.Time, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	lastKey, prevKey := keys[len(keys)-1], keys[len(keys)-2]
	last, prev := months[lastKey], months[prevKey]
	if !prev.IsPositive() || last.Equal(prev) {
		return nil
	}
	change, _ := last.Sub(prev).Div(prev).Mul(hundred).Abs().Float64()
	direction := "up"
	if last.LessThan(prev) {
		direction = "down"
	}
	return []string{fmt.Sprintf("Revenue %s %s in %s versus %s (%s vs %s)",
		direction, formatPercent(change), lastKey.Format("January 2006"), prevKey.Format("January 2006"),
		formatDecimal(last), formatDecimal(prev))}
}

func channelRevenue(sales []ledger.SaleRecord) (service, parts decimal.Decimal) {
	for _, s := range sales {
		switch s.Channel {
		case ledger.ChannelService:
			service = service.Add(s.Total)
		case ledger.ChannelParts:
			parts = parts.Add(s.Total)
		}
	}
	return service, parts
}

func mixTrend(service, parts decimal.Decimal) []string {
	factor := decimal.NewFromFloat(mixDominanceFactor)
	switch {
	case service.IsPositive() && service.GreaterThan(parts.Mul(factor)):
		return []string{fmt.Sprintf("Service revenue (%s) dominates parts revenue (%s)",
			formatDecimal(service), formatDecimal(parts))}
	case parts.IsPositive() && parts.GreaterThan(service.Mul(factor)):
		return []string{fmt.Sprintf("Parts revenue (%s) dominates service revenue (%s)",
			formatDecimal(parts), formatDecimal(service))}
	}
	return nil
}

func mixRecommendation(service, parts decimal.Decimal) []string {
	total := service.Add(parts)
	if !total.IsPositive() {
		return nil
	}
	share, _ := service.Div(total).Mul(hundred).Float64()
	switch {
	case share < serviceShareLowPercent:
		return []string{fmt.Sprintf("Service is only %s of revenue; bundle labor offers with counter parts sales", formatPercent(share))}
	case share > serviceShareHighPercent:
		return []string{fmt.Sprintf("Service is %s of revenue; promote counter parts sales to balance the mix", formatPercent(share))}
	}
	return nil
}

func concentrationRecommendation(sales []ledger.SaleRecord) []string {
	ranked := RankClients(sales)
	total := decimal.Zero
	for _, c := range ranked {
		total = total.Add(c.Revenue)
	}
	if !total.IsPositive() || len(ranked) == 0 {
		return nil
	}
	n := topClientsCount
	if len(ranked) < n {
		n = len(ranked)
	}
	top := decimal.Zero
	for _, c := range ranked[:n] {
		top = top.Add(c.Revenue)
	}
	share := top.Div(total).Mul(hundred)
	if !share.GreaterThan(decimal.NewFromInt(topClientsSharePercent)) {
		return nil
	}
	f, _ := share.Float64()
	return []string{fmt.Sprintf("Top %d clients generate %s of revenue; diversify the client base", n, formatPercent(f))}
}

func branchImbalance(branches []RatioSet) []string {
	var maxSet, minSet *RatioSet
	for i := range branches {
		b := &branches[i]
		if !b.Revenue.IsPositive() {
			continue
		}
		if maxSet == nil || b.Revenue.GreaterThan(maxSet.Revenue) {
			maxSet = b
		}
		if minSet == nil || b.Revenue.LessThan(minSet.Revenue) {
			minSet = b
		}
	}
	if maxSet == nil || maxSet == minSet {
		return nil
	}
	if !maxSet.Revenue.GreaterThan(minSet.Revenue.Mul(decimal.NewFromInt(branchImbalanceFactor))) {
		return nil
	}
	return []string{fmt.Sprintf("%s sells %s against %s at %s; replicate the leading branch practices",
		titleName(maxSet.Scope), formatDecimal(maxSet.Revenue), titleName(minSet.Scope), formatDecimal(minSet.Revenue))}
}

func branchRecommendations(branches []RatioSet) []string {
	var out []string
	for _, b := range branches {
		if b.OperatingResult.IsNegative() {
			out = append(out, fmt.Sprintf("%s operates at a loss of %s; review its fixed cost structure",
				titleName(b.Scope), formatDecimal(b.OperatingResult.Abs())))
		}
		if b.FixedCost.IsPositive() && b.AbsorptionFactor.LessThan(hundred) {
			f, _ := b.AbsorptionFactor.Float64()
			out = append(out, fmt.Sprintf("%s covers %s of its fixed costs with revenue", titleName(b.Scope), formatPercent(f)))
		}
	}
	return out
}

func productivityNotes(sales []ledger.SaleRecord, p ProductivityContext) (trends, recs []string) {
	labor := p.LaborRevenue
	if !labor.IsPositive() {
		for _, s := range sales {
			if s.Channel == ledger.ChannelService {
				labor = labor.Add(s.LaborRevenue())
			}
		}
	}
	if !p.HourlyTariff.IsPositive() || !p.AvailableHours.IsPositive() {
		return nil, nil
	}
	billed := labor.Div(p.HourlyTariff)
	utilization, _ := billed.Div(p.AvailableHours).Mul(hundred).Float64()
	billedHours, _ := billed.Float64()
	availableHours, _ := p.AvailableHours.Float64()

	note := fmt.Sprintf("Workshop utilization %s (%s of %s hours billed",
		formatPercent(utilization), printer.Sprintf("%.1f", billedHours), printer.Sprintf("%.0f", availableHours))
	if p.Technicians > 0 {
		perTech := labor.Div(decimal.NewFromInt(int64(p.Technicians)))
		note += fmt.Sprintf(", %s labor revenue per technician", formatDecimal(perTech))
	}
	trends = append(trends, note+")")

	if utilization < utilizationLowPercent {
		recs = append(recs, fmt.Sprintf("Utilization of %s is below %d%%; schedule preventive maintenance campaigns",
			formatPercent(utilization), utilizationLowPercent))
	}
	return trends, recs
}
