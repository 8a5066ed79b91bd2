package forecast

import (
	"sort"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
)

// DailySeries sums sale totals per calendar day. Days without sales are
// not included.
func DailySeries(sales []ledger.SaleRecord) []strategy.DailyPoint {
	sums := make(map[time.Time]float64)
	for _, s := range sales {
		v, _ := s.Total.Float64()
		sums[s.Day()] += v
	}
	out := make([]strategy.DailyPoint, 0, len(sums))
	for d, v := range sums {
		out = append(out, strategy.DailyPoint{Date: d, Revenue: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
