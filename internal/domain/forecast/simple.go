package forecast

import (
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"gonum.org/v1/gonum/stat"
)

// simpleAverage projects the trailing daily average over the working days
// of the horizon. The average divides by the calendar span of the days
// that had sales inside the window.
func simpleAverage(series []strategy.DailyPoint, workingDays int, cfg Config) (float64, float64, Confidence) {
	if len(series) == 0 {
		return 0, 0, ConfidenceLow
	}
	last := series[len(series)-1].Date
	cutoff := last.AddDate(0, 0, -cfg.TrailingDays)

	var window []float64
	var first time.Time
	for _, p := range series {
		if !p.Date.After(cutoff) {
			continue
		}
		if first.IsZero() {
			first = p.Date
		}
		window = append(window, p.Revenue)
	}

	span := float64(daysBetween(first, last) + 1)
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	dailyAvg := sum / span

	confidence := ConfidenceLow
	if len(window) >= 2 {
		mean, std := stat.MeanStdDev(window, nil)
		if mean > 0 {
			cv := std / mean
			switch {
			case cv < cfg.SimpleHighCV:
				confidence = ConfidenceHigh
			case cv < cfg.SimpleMediumCV:
				confidence = ConfidenceMedium
			}
		}
	}
	return dailyAvg * float64(workingDays), dailyAvg, confidence
}

func daysBetween(a, b time.Time) int {
	a, b = ledger.TruncateDay(a), ledger.TruncateDay(b)
	return int(b.Sub(a).Hours()/24 + 0.5)
}
