package persistence

import (
	"github.com/erp/aftersales/internal/domain/ledger"
	"gorm.io/gorm"
)

const saveBatchSize = 500

// applyLedgerFilter narrows a ledger query by day range and branch. The range
// is inclusive of whole days, so the upper bound is the start of the next day.
func applyLedgerFilter(query *gorm.DB, filter ledger.Filter) *gorm.DB {
	if filter.Range != nil {
		query = query.
			Where("date >= ?", filter.Range.Start).
			Where("date < ?", filter.Range.End.AddDate(0, 0, 1))
	}
	if filter.Branch != "" {
		query = query.Where("branch = ?", filter.Branch)
	}
	return query
}
