package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSalesRepository_SaveAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormSalesRepository(db)
	ctx := context.Background()

	withParts := sale("s-3", day(2024, 3, 10), "North", "150")
	withParts.Labor = dec("100")
	withParts.Parts = decimal.NewNullDecimal(dec("50"))
	withParts.Channel = ledger.ChannelParts

	n, err := repo.SaveSales(ctx, []ledger.SaleRecord{
		sale("s-2", day(2024, 3, 1), "North", "200"),
		sale("s-1", day(2024, 3, 1), "South", "-40"),
		withParts,
		sale("s-4", day(2024, 4, 2), "South", "80"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	t.Run("returns all sales ordered by date then id", func(t *testing.T) {
		sales, err := repo.FindSales(ctx, ledger.Filter{})
		require.NoError(t, err)
		require.Len(t, sales, 4)

		ids := make([]string, len(sales))
		for i, s := range sales {
			ids[i] = s.ID
		}
		assert.Equal(t, []string{"s-1", "s-2", "s-3", "s-4"}, ids)
		assert.True(t, sales[0].Total.Equal(dec("-40")))
		assert.True(t, sales[0].IsCreditNote())
	})

	t.Run("keeps absent parts distinct from recorded parts", func(t *testing.T) {
		sales, err := repo.FindSales(ctx, ledger.Filter{})
		require.NoError(t, err)

		assert.False(t, sales[1].Parts.Valid)
		assert.True(t, sales[2].Parts.Valid)
		assert.True(t, sales[2].Parts.Decimal.Equal(dec("50")))
		assert.Equal(t, ledger.ChannelParts, sales[2].Channel)
		assert.True(t, sales[2].IsConsistent())
	})

	t.Run("range includes the whole last day", func(t *testing.T) {
		r, err := ledger.NewDateRange(day(2024, 3, 1), day(2024, 3, 10))
		require.NoError(t, err)

		sales, err := repo.FindSales(ctx, ledger.Filter{Range: &r})
		require.NoError(t, err)
		assert.Len(t, sales, 3)
	})

	t.Run("filters by branch", func(t *testing.T) {
		sales, err := repo.FindSales(ctx, ledger.Filter{Branch: "South"})
		require.NoError(t, err)
		require.Len(t, sales, 2)
		for _, s := range sales {
			assert.Equal(t, "South", s.Branch)
		}

		count, err := repo.Count(ctx, ledger.Filter{Branch: "South"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("skips existing ids", func(t *testing.T) {
		n, err := repo.SaveSales(ctx, []ledger.SaleRecord{sale("s-1", day(2024, 3, 1), "South", "999")})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		sales, err := repo.FindSales(ctx, ledger.Filter{Branch: "South"})
		require.NoError(t, err)
		assert.True(t, sales[0].Total.Equal(dec("-40")))
	})

	t.Run("saving nothing is a no-op", func(t *testing.T) {
		n, err := repo.SaveSales(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestGormSalesRepository_FindSalesError(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "sales"`).WillReturnError(errors.New("connection reset"))

	repo := NewGormSalesRepository(db.DB)
	sales, err := repo.FindSales(context.Background(), ledger.Filter{})
	require.Error(t, err)
	assert.Nil(t, sales)
	assert.Contains(t, err.Error(), "find sales")
	assert.NoError(t, mock.ExpectationsWereMet())
}
