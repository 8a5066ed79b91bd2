package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSaleRecord_ExpectedTotal(t *testing.T) {
	t.Run("all components", func(t *testing.T) {
		s := SaleRecord{
			Labor:      decimal.NewFromInt(100),
			Assistance: decimal.NewFromInt(20),
			Parts:      decimal.NewNullDecimal(decimal.NewFromInt(300)),
			ThirdParty: decimal.NewFromInt(50),
			Discount:   decimal.NewFromInt(70),
			Total:      decimal.NewFromInt(400),
		}
		assert.True(t, s.ExpectedTotal().Equal(decimal.NewFromInt(400)))
		assert.True(t, s.IsConsistent())
	})

	t.Run("missing parts counts as zero", func(t *testing.T) {
		s := SaleRecord{
			Labor: decimal.NewFromInt(100),
			Total: decimal.NewFromInt(100),
		}
		assert.False(t, s.Parts.Valid)
		assert.True(t, s.PartsOrZero().IsZero())
		assert.True(t, s.IsConsistent())
	})

	t.Run("credit note", func(t *testing.T) {
		s := SaleRecord{
			Parts: decimal.NewNullDecimal(decimal.NewFromInt(-80)),
			Total: decimal.NewFromInt(-80),
		}
		assert.True(t, s.IsCreditNote())
		assert.True(t, s.IsConsistent())
	})
}

func TestChannel(t *testing.T) {
	assert.True(t, ChannelParts.IsValid())
	assert.True(t, ChannelService.IsValid())
	assert.False(t, Channel("XX").IsValid())
	assert.Equal(t, "Service", ChannelService.DisplayName())
}

func TestNewExpenseRecord_DerivesAmounts(t *testing.T) {
	e := NewExpenseRecord("e1", day(2024, 3, 1), "Norte", CostKindFixed, "RENT",
		decimal.NewFromInt(1000), Allocation{
			PostSale: decimal.NewFromFloat(0.5),
			Service:  decimal.NewFromFloat(0.6),
			Parts:    decimal.NewFromFloat(0.4),
		})

	assert.True(t, e.PostSaleAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, e.ServiceAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, e.PartsAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, e.AllocatedTotal().Equal(decimal.NewFromInt(500)))
	assert.True(t, e.IsFixed())
}

func TestParseCostKind(t *testing.T) {
	assert.Equal(t, CostKindFixed, ParseCostKind("fijo"))
	assert.Equal(t, CostKindFixed, ParseCostKind(" FIXED "))
	assert.Equal(t, CostKindVariable, ParseCostKind("VARIABLE"))
	assert.Equal(t, CostKindVariable, ParseCostKind(""))
}

func TestDateRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		r, err := NewDateRange(day(2024, 1, 1), day(2024, 1, 31))
		require.NoError(t, err)
		assert.Equal(t, 31, r.Days())
		assert.True(t, r.Contains(time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC)))
		assert.False(t, r.Contains(day(2024, 2, 1)))
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := NewDateRange(day(2024, 2, 1), day(2024, 1, 1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidRange))
	})
}

func TestFilterSales(t *testing.T) {
	r, err := NewDateRange(day(2024, 1, 10), day(2024, 1, 20))
	require.NoError(t, err)

	sales := []SaleRecord{
		{ID: "1", Date: day(2024, 1, 5), Branch: "Norte"},
		{ID: "2", Date: day(2024, 1, 15), Branch: "Norte"},
		{ID: "3", Date: day(2024, 1, 15), Branch: "Sur"},
		{ID: "4", Date: day(2024, 1, 25), Branch: "Sur"},
	}

	got := FilterSales(sales, Filter{Range: &r})
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	got = FilterSales(sales, Filter{Range: &r, Branch: "Sur"})
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	assert.Len(t, FilterSales(sales, Filter{}), 4)
}
