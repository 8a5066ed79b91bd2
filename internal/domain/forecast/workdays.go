package forecast

import "time"

// Horizon lists n consecutive calendar days starting at from
func Horizon(from time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = from.AddDate(0, 0, i)
	}
	return out
}

// IsWorkingDay returns false only for Sundays
func IsWorkingDay(d time.Time) bool {
	return d.Weekday() != time.Sunday
}

// WorkingDays counts Monday to Saturday days in the horizon
func WorkingDays(horizon []time.Time) int {
	n := 0
	for _, d := range horizon {
		if IsWorkingDay(d) {
			n++
		}
	}
	return n
}

// DayWeight is the mask weight of a day: 1 on weekdays, saturdayWeight on
// Saturdays, 0 on Sundays
func DayWeight(d time.Time, saturdayWeight float64) float64 {
	switch d.Weekday() {
	case time.Sunday:
		return 0
	case time.Saturday:
		return saturdayWeight
	default:
		return 1
	}
}

// ApplyMask sums daily forecasts weighted by the working-day mask. Negative
// daily values are treated as no revenue.
func ApplyMask(daily []float64, horizon []time.Time, saturdayWeight float64) float64 {
	total := 0.0
	for i, v := range daily {
		if i >= len(horizon) {
			break
		}
		if v < 0 {
			v = 0
		}
		total += v * DayWeight(horizon[i], saturdayWeight)
	}
	return total
}
