package persistence

import (
	"context"
	"fmt"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormExpenseRepository implements ledger.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindExpenses returns the expenses matching the filter ordered by date then id
func (r *GormExpenseRepository) FindExpenses(ctx context.Context, filter ledger.Filter) ([]ledger.ExpenseRecord, error) {
	var expenseModels []models.ExpenseModel
	query := applyLedgerFilter(r.db.WithContext(ctx).Model(&models.ExpenseModel{}), filter)
	if err := query.Order("date ASC, id ASC").Find(&expenseModels).Error; err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	expenses := make([]ledger.ExpenseRecord, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = expenseModels[i].ToDomain()
	}
	return expenses, nil
}

// SaveExpenses inserts expenses with their derived amounts, skipping ids
// that already exist
func (r *GormExpenseRepository) SaveExpenses(ctx context.Context, expenses []ledger.ExpenseRecord) (int64, error) {
	if len(expenses) == 0 {
		return 0, nil
	}
	rows := make([]models.ExpenseModel, len(expenses))
	for i, e := range expenses {
		rows[i].FromDomain(e)
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		CreateInBatches(&rows, saveBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("save expenses: %w", result.Error)
	}
	return result.RowsAffected, nil
}
