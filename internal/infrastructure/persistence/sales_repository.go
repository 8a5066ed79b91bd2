package persistence

import (
	"context"
	"fmt"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesRepository implements ledger.SalesRepository using GORM
type GormSalesRepository struct {
	db *gorm.DB
}

// NewGormSalesRepository creates a new GormSalesRepository
func NewGormSalesRepository(db *gorm.DB) *GormSalesRepository {
	return &GormSalesRepository{db: db}
}

// FindSales returns the sales matching the filter ordered by date then id
func (r *GormSalesRepository) FindSales(ctx context.Context, filter ledger.Filter) ([]ledger.SaleRecord, error) {
	var saleModels []models.SaleModel
	query := applyLedgerFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter)
	if err := query.Order("date ASC, id ASC").Find(&saleModels).Error; err != nil {
		return nil, fmt.Errorf("find sales: %w", err)
	}
	sales := make([]ledger.SaleRecord, len(saleModels))
	for i := range saleModels {
		sales[i] = saleModels[i].ToDomain()
	}
	return sales, nil
}

// SaveSales inserts sales, skipping ids that already exist
func (r *GormSalesRepository) SaveSales(ctx context.Context, sales []ledger.SaleRecord) (int64, error) {
	if len(sales) == 0 {
		return 0, nil
	}
	rows := make([]models.SaleModel, len(sales))
	for i, s := range sales {
		rows[i].FromDomain(s)
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		CreateInBatches(&rows, saveBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("save sales: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Count returns the number of sales matching the filter
func (r *GormSalesRepository) Count(ctx context.Context, filter ledger.Filter) (int64, error) {
	var n int64
	query := applyLedgerFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter)
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}
