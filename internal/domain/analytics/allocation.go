package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Classification labels of the synthetic cost entries
const (
	ClassificationCounterParts = "parts sold at counter"
	ClassificationServiceParts = "parts sold within service jobs"
)

// legacyAllocatedLabels are the labels older ledgers used for the same
// entries when they were typed in by hand.
var legacyAllocatedLabels = []string{
	"COSTO DE REPUESTOS VENDIDOS MOSTRADOR",
	"COSTO DE REPUESTOS VENDIDOS EN SERVICIOS",
}

// IsAllocatedClassification reports whether a manual expense classification
// collides with one of the automatically computed entries.
func IsAllocatedClassification(classification string) bool {
	c := strings.TrimSpace(classification)
	if strings.EqualFold(c, ClassificationCounterParts) || strings.EqualFold(c, ClassificationServiceParts) {
		return true
	}
	for _, label := range legacyAllocatedLabels {
		if strings.EqualFold(c, label) {
			return true
		}
	}
	return false
}

// AllocationConfig holds the constants of the cost allocator
type AllocationConfig struct {
	// CostRatio is the share of parts revenue that is cost of goods sold
	CostRatio decimal.Decimal
	// ServicePartsFallbackRatio estimates the parts content of service
	// revenue when no service sale records it
	ServicePartsFallbackRatio decimal.Decimal
	// Supplier is recorded as provider of the synthetic entries
	Supplier string
}

// DefaultAllocationConfig returns the standard constants
func DefaultAllocationConfig() AllocationConfig {
	return AllocationConfig{
		CostRatio:                 decimal.NewFromFloat(0.65),
		ServicePartsFallbackRatio: decimal.NewFromFloat(0.70),
		Supplier:                  "JOHN DEERE",
	}
}

// CostAllocator derives the implicit cost of parts sold from the sales ledger
type CostAllocator struct {
	cfg AllocationConfig
}

// NewCostAllocator creates an allocator
func NewCostAllocator(cfg AllocationConfig) *CostAllocator {
	if cfg.Supplier == "" {
		cfg.Supplier = DefaultAllocationConfig().Supplier
	}
	return &CostAllocator{cfg: cfg}
}

// Config returns the allocator constants
func (a *CostAllocator) Config() AllocationConfig {
	return a.cfg
}

// ApproximateServiceParts estimates the parts content of service revenue.
// It is a coarse approximation used only when no service sale carries a
// parts sub-amount.
func ApproximateServiceParts(serviceRevenue, ratio decimal.Decimal) decimal.Decimal {
	return serviceRevenue.Mul(ratio)
}

type branchTotals struct {
	counterBase     decimal.Decimal
	serviceParts    decimal.Decimal
	serviceRevenue  decimal.Decimal
	servicePartsSet bool
	lastDate        time.Time
}

// Allocate computes the synthetic cost entries, one per classification per
// branch, skipping entries whose cost is not positive. Branches are emitted
// in name order.
func (a *CostAllocator) Allocate(sales []ledger.SaleRecord) []ledger.ExpenseRecord {
	byBranch := make(map[string]*branchTotals)
	for _, s := range sales {
		bt, ok := byBranch[s.Branch]
		if !ok {
			bt = &branchTotals{}
			byBranch[s.Branch] = bt
		}
		if s.Date.After(bt.lastDate) {
			bt.lastDate = s.Date
		}
		switch s.Channel {
		case ledger.ChannelParts:
			if s.Parts.Valid {
				bt.counterBase = bt.counterBase.Add(s.Parts.Decimal)
			} else {
				bt.counterBase = bt.counterBase.Add(s.Total)
			}
		case ledger.ChannelService:
			bt.serviceRevenue = bt.serviceRevenue.Add(s.Total)
			if s.Parts.Valid {
				bt.servicePartsSet = true
				bt.serviceParts = bt.serviceParts.Add(s.Parts.Decimal)
			}
		}
	}

	branches := make([]string, 0, len(byBranch))
	for b := range byBranch {
		branches = append(branches, b)
	}
	sort.Strings(branches)

	out := make([]ledger.ExpenseRecord, 0, 2*len(branches))
	for _, b := range branches {
		bt := byBranch[b]

		counterCost := bt.counterBase.Mul(a.cfg.CostRatio)
		if counterCost.IsPositive() {
			out = append(out, a.entry("AUTO_REP_"+b, b, bt.lastDate, ledger.AreaParts,
				ClassificationCounterParts, counterCost, ledger.Allocation{
					PostSale: decimal.NewFromInt(1),
					Service:  decimal.Zero,
					Parts:    decimal.NewFromInt(1),
				}))
		}

		base := bt.serviceParts
		if !bt.servicePartsSet {
			base = ApproximateServiceParts(bt.serviceRevenue, a.cfg.ServicePartsFallbackRatio)
		}
		serviceCost := base.Mul(a.cfg.CostRatio)
		if serviceCost.IsPositive() {
			out = append(out, a.entry("AUTO_SERV_"+b, b, bt.lastDate, ledger.AreaService,
				ClassificationServiceParts, serviceCost, ledger.Allocation{
					PostSale: decimal.NewFromInt(1),
					Service:  decimal.NewFromInt(1),
					Parts:    decimal.Zero,
				}))
		}
	}
	return out
}

func (a *CostAllocator) entry(id, branch string, date time.Time, area, classification string, cost decimal.Decimal, alloc ledger.Allocation) ledger.ExpenseRecord {
	e := ledger.NewExpenseRecord(id, date, branch, ledger.CostKindVariable, classification, cost, alloc)
	e.Area = area
	e.Provider = a.cfg.Supplier
	e.Description = "Cost of " + classification + " (computed)"
	e.Automatic = true
	return e
}

// Merge drops manual expenses that duplicate a synthetic classification and
// returns a new slice with the remaining manual entries followed by the
// allocated ones. Neither input is modified.
func Merge(manual, allocated []ledger.ExpenseRecord) []ledger.ExpenseRecord {
	out := make([]ledger.ExpenseRecord, 0, len(manual)+len(allocated))
	for _, e := range manual {
		if IsAllocatedClassification(e.Classification) {
			continue
		}
		out = append(out, e)
	}
	return append(out, allocated...)
}

// ExpenseContext is the merged expense ledger plus its totals
type ExpenseContext struct {
	Expenses       []ledger.ExpenseRecord `json:"-"`
	Allocated      []ledger.ExpenseRecord `json:"-"`
	PostSaleTotal  decimal.Decimal        `json:"post_sale_total"`
	ServiceTotal   decimal.Decimal        `json:"service_total"`
	PartsTotal     decimal.Decimal        `json:"parts_total"`
	ManualTotal    decimal.Decimal        `json:"manual_total"`
	AutomaticTotal decimal.Decimal        `json:"automatic_total"`
}

// NewExpenseContext totals an already merged expense ledger
func NewExpenseContext(merged []ledger.ExpenseRecord) *ExpenseContext {
	ctx := &ExpenseContext{Expenses: merged}
	for _, e := range merged {
		ctx.ServiceTotal = ctx.ServiceTotal.Add(e.ServiceAmount)
		ctx.PartsTotal = ctx.PartsTotal.Add(e.PartsAmount)
		if e.Automatic {
			ctx.Allocated = append(ctx.Allocated, e)
			ctx.AutomaticTotal = ctx.AutomaticTotal.Add(e.AllocatedTotal())
		} else {
			ctx.ManualTotal = ctx.ManualTotal.Add(e.AllocatedTotal())
		}
	}
	ctx.PostSaleTotal = ctx.ServiceTotal.Add(ctx.PartsTotal)
	return ctx
}

// BuildExpenseContext allocates automatic costs and merges them with the
// manual ledger.
func (a *CostAllocator) BuildExpenseContext(sales []ledger.SaleRecord, manual []ledger.ExpenseRecord) *ExpenseContext {
	return NewExpenseContext(Merge(manual, a.Allocate(sales)))
}
