package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CostKind separates fixed costs from volume-driven costs
type CostKind string

const (
	CostKindFixed    CostKind = "FIJO"
	CostKindVariable CostKind = "VARIABLE"
)

// IsValid checks if the kind is known
func (k CostKind) IsValid() bool {
	return k == CostKindFixed || k == CostKindVariable
}

// String returns the string representation of CostKind
func (k CostKind) String() string {
	return string(k)
}

// ParseCostKind accepts the stored label as well as "FIXED"
func ParseCostKind(s string) CostKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIJO", "FIXED":
		return CostKindFixed
	default:
		return CostKindVariable
	}
}

// Areas used by the automatic allocator
const (
	AreaParts   = "REPUESTOS"
	AreaService = "SERVICIO"
)

// Allocation holds the three percentage splits of an expense, expressed as
// fractions (1 = 100%).
type Allocation struct {
	PostSale decimal.Decimal
	Service  decimal.Decimal
	Parts    decimal.Decimal
}

// ExpenseRecord is one line of the expense ledger. The derived amounts are
// always consistent with the USD amount and the allocation.
type ExpenseRecord struct {
	ID             string
	Date           time.Time
	Branch         string
	Area           string
	Kind           CostKind
	Classification string
	Provider       string
	Description    string
	AmountUSD      decimal.Decimal
	Allocation     Allocation
	PostSaleAmount decimal.Decimal
	ServiceAmount  decimal.Decimal
	PartsAmount    decimal.Decimal
	Automatic      bool
}

// NewExpenseRecord builds an expense and derives its allocated amounts
func NewExpenseRecord(id string, date time.Time, branch string, kind CostKind, classification string, amountUSD decimal.Decimal, alloc Allocation) ExpenseRecord {
	e := ExpenseRecord{
		ID:             id,
		Date:           date,
		Branch:         branch,
		Kind:           kind,
		Classification: classification,
		AmountUSD:      amountUSD,
		Allocation:     alloc,
	}
	return e.WithDerivedAmounts()
}

// WithDerivedAmounts returns a copy with post-sale, service and parts amounts
// recomputed from the USD amount and the allocation.
func (e ExpenseRecord) WithDerivedAmounts() ExpenseRecord {
	e.PostSaleAmount = e.AmountUSD.Mul(e.Allocation.PostSale)
	e.ServiceAmount = e.PostSaleAmount.Mul(e.Allocation.Service)
	e.PartsAmount = e.PostSaleAmount.Mul(e.Allocation.Parts)
	return e
}

// AllocatedTotal returns the service plus parts share of the expense
func (e ExpenseRecord) AllocatedTotal() decimal.Decimal {
	return e.ServiceAmount.Add(e.PartsAmount)
}

// IsFixed returns true for fixed costs
func (e ExpenseRecord) IsFixed() bool {
	return e.Kind == CostKindFixed
}
