package ledger

import "context"

// SalesRepository reads the sales ledger
type SalesRepository interface {
	FindSales(ctx context.Context, filter Filter) ([]SaleRecord, error)
}

// ExpenseRepository reads the manual expense ledger
type ExpenseRepository interface {
	FindExpenses(ctx context.Context, filter Filter) ([]ExpenseRecord, error)
}
