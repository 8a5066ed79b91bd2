// Package forecast holds the statistical forecast strategies of the ensemble.
package forecast

import (
	"math"
	"time"

	"github.com/erp/aftersales/internal/domain/shared/strategy"
)

// dayIndex returns whole days from origin to d
func dayIndex(origin, d time.Time) float64 {
	return math.Round(d.Sub(origin).Hours() / 24)
}

func values(series []strategy.DailyPoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Revenue
	}
	return out
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
