package analytics

import (
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func partsSale(branch string, date time.Time, total float64) ledger.SaleRecord {
	return ledger.SaleRecord{
		Date:    date,
		Branch:  branch,
		Client:  "C1",
		Channel: ledger.ChannelParts,
		Parts:   decimal.NewNullDecimal(dec(total)),
		Total:   dec(total),
	}
}

func serviceSale(branch string, date time.Time, total float64) ledger.SaleRecord {
	return ledger.SaleRecord{
		Date:    date,
		Branch:  branch,
		Client:  "C1",
		Channel: ledger.ChannelService,
		Labor:   dec(total),
		Total:   dec(total),
	}
}

func sale(client string, date time.Time, total float64) ledger.SaleRecord {
	s := partsSale("Norte", date, total)
	s.Client = client
	return s
}

func fixedExpense(branch string, amount float64) ledger.ExpenseRecord {
	return ledger.NewExpenseRecord("f-"+branch, day(2024, 1, 1), branch, ledger.CostKindFixed, "RENT",
		dec(amount), ledger.Allocation{PostSale: dec(1), Service: dec(0.5), Parts: dec(0.5)})
}

func variableExpense(branch string, amount float64) ledger.ExpenseRecord {
	return ledger.NewExpenseRecord("v-"+branch, day(2024, 1, 1), branch, ledger.CostKindVariable, "FREIGHT",
		dec(amount), ledger.Allocation{PostSale: dec(1), Service: dec(0.5), Parts: dec(0.5)})
}
