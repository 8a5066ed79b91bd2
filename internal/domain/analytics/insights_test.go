package analytics

import (
	"testing"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightInput(sales []ledger.SaleRecord, expenses []ledger.ExpenseRecord) InsightInput {
	ctx := NewExpenseContext(expenses)
	return InsightInput{
		Sales:    sales,
		Expenses: ctx,
		Global:   CalculateRatios(sales, expenses, SegmentPostSale, ""),
		Branches: CalculateBranchRatios(sales, expenses, SegmentPostSale),
		AsOf:     day(2024, 2, 28),
	}
}

func TestBuildInsights_Empty(t *testing.T) {
	f := BuildInsights(InsightInput{})
	assert.NotNil(t, f.Insights.Trends)
	assert.Empty(t, f.Insights.Trends)
	assert.Empty(t, f.Insights.Alerts)
	assert.Empty(t, f.Insights.Recommendations)
	assert.Empty(t, f.Recommendations)
	assert.Empty(t, f.BranchRecommendations)
	assert.Empty(t, f.MixRecommendations)
}

func TestBuildInsights_MonthlyTrendAndMix(t *testing.T) {
	sales := []ledger.SaleRecord{
		serviceSale("Norte", day(2024, 1, 10), 1000),
		serviceSale("Norte", day(2024, 2, 27), 2000),
		partsSale("Norte", day(2024, 2, 27), 100),
	}
	f := BuildInsights(insightInput(sales, nil))

	require.NotEmpty(t, f.Insights.Trends)
	assert.Contains(t, f.Insights.Trends[0], "Revenue up 110.0% in February 2024 versus January 2024")
	assert.Contains(t, f.Insights.Trends, "Service revenue ($3,000.00) dominates parts revenue ($100.00)")
	require.Len(t, f.MixRecommendations, 1)
	assert.Contains(t, f.MixRecommendations[0], "96.8%")
	// no expenses: margin is 100%
	assert.Contains(t, f.Insights.Trends, "Excellent operating margin of 100.0%")
}

func TestBuildInsights_MarginAlerts(t *testing.T) {
	sales := []ledger.SaleRecord{
		partsSale("Norte", day(2024, 2, 27), 500),
		serviceSale("Norte", day(2024, 2, 27), 500),
	}
	f := BuildInsights(insightInput(sales, []ledger.ExpenseRecord{fixedExpense("Norte", 1100)}))

	require.Len(t, f.Insights.Alerts, 2)
	assert.Contains(t, f.Insights.Alerts[0], "Low operating margin")
	assert.Contains(t, f.Insights.Alerts[1], "above revenue")
	require.NotEmpty(t, f.BranchRecommendations)
	assert.Contains(t, f.BranchRecommendations[0], "Norte operates at a loss of $100.00")
}

func TestBuildInsights_IdleDays(t *testing.T) {
	sales := []ledger.SaleRecord{partsSale("Norte", day(2024, 2, 10), 100)}
	f := BuildInsights(insightInput(sales, nil))
	require.Len(t, f.Insights.Recommendations, 1)
	assert.Contains(t, f.Insights.Recommendations[0], "18 days without sales")
}

func TestBuildInsights_ConcentrationAndImbalance(t *testing.T) {
	sales := []ledger.SaleRecord{
		partsSale("Norte", day(2024, 2, 27), 1000),
		partsSale("Sur", day(2024, 2, 27), 100),
	}
	f := BuildInsights(insightInput(sales, nil))

	require.Len(t, f.Recommendations, 2)
	assert.Contains(t, f.Recommendations[0], "Top 1 clients generate 100.0% of revenue")
	assert.Contains(t, f.Recommendations[1], "Norte sells $1,000.00 against Sur at $100.00")
}

func TestBuildInsights_Productivity(t *testing.T) {
	sales := []ledger.SaleRecord{serviceSale("Norte", day(2024, 2, 27), 2000)}
	in := insightInput(sales, nil)
	in.Productivity = &ProductivityContext{
		Technicians:    2,
		HourlyTariff:   decimal.NewFromInt(50),
		AvailableHours: decimal.NewFromInt(100),
	}

	f := BuildInsights(in)

	assert.Contains(t, f.Insights.Trends,
		"Workshop utilization 40.0% (40.0 of 100 hours billed, $1,000.00 labor revenue per technician)")
	require.Len(t, f.Insights.Recommendations, 1)
	assert.Contains(t, f.Insights.Recommendations[0], "below 60%")
}
