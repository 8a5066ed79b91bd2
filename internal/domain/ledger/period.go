package ledger

import (
	"fmt"
	"time"

	"github.com/erp/aftersales/internal/domain/shared"
)

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates and builds a range
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", shared.ErrInvalidRange,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return DateRange{Start: TruncateDay(start), End: TruncateDay(end)}, nil
}

// Contains returns true if t falls on a day within the range
func (r DateRange) Contains(t time.Time) bool {
	d := TruncateDay(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days covered
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Filter narrows ledger reads
type Filter struct {
	Range  *DateRange
	Branch string
}

// Matches applies the filter to a date and branch
func (f Filter) Matches(date time.Time, branch string) bool {
	if f.Range != nil && !f.Range.Contains(date) {
		return false
	}
	if f.Branch != "" && f.Branch != branch {
		return false
	}
	return true
}

// FilterSales returns the sales matching the filter, preserving order
func FilterSales(sales []SaleRecord, f Filter) []SaleRecord {
	out := make([]SaleRecord, 0, len(sales))
	for _, s := range sales {
		if f.Matches(s.Date, s.Branch) {
			out = append(out, s)
		}
	}
	return out
}

// FilterExpenses returns the expenses matching the filter, preserving order
func FilterExpenses(expenses []ExpenseRecord, f Filter) []ExpenseRecord {
	out := make([]ExpenseRecord, 0, len(expenses))
	for _, e := range expenses {
		if f.Matches(e.Date, e.Branch) {
			out = append(out, e)
		}
	}
	return out
}
