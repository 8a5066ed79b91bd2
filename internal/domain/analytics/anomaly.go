package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"gonum.org/v1/gonum/stat"
)

// Anomaly types
const (
	AnomalyHighSale       = "Exceptionally High Sale"
	AnomalyLowWeekday     = "Low Weekday Sales"
	AnomalyWeeklyIncrease = "Weekly Sales Increase"
	AnomalyWeeklyDecrease = "Weekly Sales Decrease"
	AnomalySalesGap       = "Sales Gap"
)

// Anomaly categories
const (
	CategoryStatistical = "Statistical"
	CategoryPattern     = "Temporal Pattern"
	CategoryTrend       = "Trend"
	CategoryGap         = "Data Gap"
)

const (
	outlierSigmas      = 3.0
	weekdaySigmas      = 2.0
	weekdayMinRecords  = 7
	weeklyMinRecords   = 14
	weeklyMinBuckets   = 3
	weeklyChangeLimit  = 0.5
	gapMaxDays         = 7
	periodLabelPattern = time.DateOnly
)

var weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DetectAnomalies runs the four detector passes and concatenates their
// findings. Passes that lack data return nothing.
func DetectAnomalies(sales []ledger.SaleRecord) []AnomalyRecord {
	out := make([]AnomalyRecord, 0)
	out = append(out, detectOutliers(sales)...)
	out = append(out, detectWeakWeekdays(sales)...)
	out = append(out, detectWeeklySwings(sales)...)
	out = append(out, detectGaps(sales)...)
	return out
}

// OutlierBounds returns mean -/+ 3 sample standard deviations of the sale
// totals. ok is false with fewer than two sales.
func OutlierBounds(sales []ledger.SaleRecord) (low, high, mean float64, ok bool) {
	if len(sales) < 2 {
		return 0, 0, 0, false
	}
	totals := make([]float64, len(sales))
	for i, s := range sales {
		totals[i], _ = s.Total.Float64()
	}
	mean, std := stat.MeanStdDev(totals, nil)
	return mean - outlierSigmas*std, mean + outlierSigmas*std, mean, true
}

// detectOutliers only reports the high side
func detectOutliers(sales []ledger.SaleRecord) []AnomalyRecord {
	_, high, mean, ok := OutlierBounds(sales)
	if !ok {
		return nil
	}
	var out []AnomalyRecord
	for _, s := range sales {
		v, _ := s.Total.Float64()
		if v <= high {
			continue
		}
		out = append(out, AnomalyRecord{
			Category: CategoryStatistical,
			Type:     AnomalyHighSale,
			Description: fmt.Sprintf("Sale of %s to %s is far above the average sale of %s",
				formatMoney(v), titleName(s.Client), formatMoney(mean)),
			Period:    s.Date.Format(periodLabelPattern),
			Magnitude: v,
		})
	}
	return out
}

func detectWeakWeekdays(sales []ledger.SaleRecord) []AnomalyRecord {
	if len(sales) < weekdayMinRecords {
		return nil
	}
	daily := dailyTotals(sales)

	var sums [7]float64
	var counts [7]int
	for _, p := range daily {
		wd := p.day.Weekday()
		sums[wd] += p.total
		counts[wd]++
	}

	var weekdays []time.Weekday
	var averages []float64
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if counts[wd] == 0 {
			continue
		}
		weekdays = append(weekdays, wd)
		averages = append(averages, sums[wd]/float64(counts[wd]))
	}
	if len(averages) < 2 {
		return nil
	}

	mean, std := stat.MeanStdDev(averages, nil)
	limit := mean - weekdaySigmas*std
	var out []AnomalyRecord
	for i, avg := range averages {
		if avg >= limit {
			continue
		}
		out = append(out, AnomalyRecord{
			Category: CategoryPattern,
			Type:     AnomalyLowWeekday,
			Description: fmt.Sprintf("%s averages %s per day against %s across weekdays",
				weekdayNames[weekdays[i]], formatMoney(avg), formatMoney(mean)),
			Period:    weekdayNames[weekdays[i]],
			Magnitude: avg,
		})
	}
	return out
}

func detectWeeklySwings(sales []ledger.SaleRecord) []AnomalyRecord {
	if len(sales) < weeklyMinRecords {
		return nil
	}
	weeks := weeklyTotals(sales)
	if len(weeks) < weeklyMinBuckets {
		return nil
	}

	var out []AnomalyRecord
	for i := 1; i < len(weeks); i++ {
		prev, cur := weeks[i-1].total, weeks[i].total
		if prev <= 0 {
			continue
		}
		change := (cur - prev) / prev
		if math.Abs(change) <= weeklyChangeLimit {
			continue
		}
		kind, verb := AnomalyWeeklyIncrease, "rose"
		if change < 0 {
			kind, verb = AnomalyWeeklyDecrease, "fell"
		}
		out = append(out, AnomalyRecord{
			Category: CategoryTrend,
			Type:     kind,
			Description: fmt.Sprintf("Revenue for the week of %s %s %s versus the prior week (%s to %s)",
				weeks[i].day.Format(periodLabelPattern), verb, formatPercent(math.Abs(change)*100),
				formatMoney(prev), formatMoney(cur)),
			Period:    weeks[i].day.Format(periodLabelPattern),
			Magnitude: change * 100,
		})
	}
	return out
}

func detectGaps(sales []ledger.SaleRecord) []AnomalyRecord {
	days := dailyTotals(sales)
	var out []AnomalyRecord
	for i := 1; i < len(days); i++ {
		gap := daysBetween(days[i-1].day, days[i].day)
		if gap <= gapMaxDays {
			continue
		}
		start := days[i-1].day.Format(periodLabelPattern)
		end := days[i].day.Format(periodLabelPattern)
		out = append(out, AnomalyRecord{
			Category:    CategoryGap,
			Type:        AnomalySalesGap,
			Description: fmt.Sprintf("No sales recorded for %d days between %s and %s", gap, start, end),
			Period:      start + " → " + end,
			Magnitude:   float64(gap),
		})
	}
	return out
}

type bucket struct {
	day   time.Time
	total float64
}

// dailyTotals sums sales per calendar day, sorted by day
func dailyTotals(sales []ledger.SaleRecord) []bucket {
	return groupBy(sales, func(s ledger.SaleRecord) time.Time { return s.Day() })
}

// weeklyTotals sums sales per Monday-starting week, sorted
func weeklyTotals(sales []ledger.SaleRecord) []bucket {
	return groupBy(sales, func(s ledger.SaleRecord) time.Time { return weekStart(s.Day()) })
}

func groupBy(sales []ledger.SaleRecord, key func(ledger.SaleRecord) time.Time) []bucket {
	idx := make(map[time.Time]int)
	var out []bucket
	for _, s := range sales {
		k := key(s)
		v, _ := s.Total.Float64()
		if i, ok := idx[k]; ok {
			out[i].total += v
			continue
		}
		idx[k] = len(out)
		out = append(out, bucket{day: k, total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })
	return out
}

func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// daysBetween counts calendar days from a to b
func daysBetween(a, b time.Time) int {
	a, b = ledger.TruncateDay(a), ledger.TruncateDay(b)
	return int(math.Round(b.Sub(a).Hours() / 24))
}
