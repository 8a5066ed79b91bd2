package analytics

import (
	"sort"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ClientRevenue is a client's revenue total
type ClientRevenue struct {
	Client  string          `json:"client"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RankClients totals revenue per client, largest first, ties by name
func RankClients(sales []ledger.SaleRecord) []ClientRevenue {
	totals := make(map[string]decimal.Decimal)
	for _, s := range sales {
		totals[s.Client] = totals[s.Client].Add(s.Total)
	}
	out := make([]ClientRevenue, 0, len(totals))
	for c, v := range totals {
		out = append(out, ClientRevenue{Client: c, Revenue: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].Client < out[j].Client
	})
	return out
}

// TopClientsByBranch returns at most n ranked clients for every branch
func TopClientsByBranch(sales []ledger.SaleRecord, n int) map[string][]ClientRevenue {
	byBranch := make(map[string][]ledger.SaleRecord)
	for _, s := range sales {
		byBranch[s.Branch] = append(byBranch[s.Branch], s)
	}
	out := make(map[string][]ClientRevenue, len(byBranch))
	for b, branchSales := range byBranch {
		ranked := RankClients(branchSales)
		if len(ranked) > n {
			ranked = ranked[:n]
		}
		out[b] = ranked
	}
	return out
}
