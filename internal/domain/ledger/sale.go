package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies the revenue stream of a sale
type Channel string

const (
	ChannelParts   Channel = "RE" // counter parts sales
	ChannelService Channel = "SE" // service jobs
)

// IsValid checks if the channel is known
func (c Channel) IsValid() bool {
	return c == ChannelParts || c == ChannelService
}

// String returns the string representation of Channel
func (c Channel) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the channel
func (c Channel) DisplayName() string {
	switch c {
	case ChannelParts:
		return "Parts"
	case ChannelService:
		return "Service"
	default:
		return string(c)
	}
}

// SaleRecord is one line of the sales ledger. Total may be negative for
// credit notes. Parts is nullable: an invalid Parts means the sub-amount was
// not recorded, which is different from a recorded zero.
type SaleRecord struct {
	ID          string
	Date        time.Time
	Branch      string
	Client      string
	Channel     Channel
	Labor       decimal.Decimal
	Assistance  decimal.Decimal
	Parts       decimal.NullDecimal
	ThirdParty  decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	ReceiptType string
	ReceiptNo   string
}

// PartsOrZero returns the parts sub-amount, or zero when absent
func (s SaleRecord) PartsOrZero() decimal.Decimal {
	if s.Parts.Valid {
		return s.Parts.Decimal
	}
	return decimal.Zero
}

// ExpectedTotal recomputes labor + assistance + parts + third party - discount
func (s SaleRecord) ExpectedTotal() decimal.Decimal {
	return s.Labor.
		Add(s.Assistance).
		Add(s.PartsOrZero()).
		Add(s.ThirdParty).
		Sub(s.Discount)
}

// IsConsistent reports whether Total matches its components
func (s SaleRecord) IsConsistent() bool {
	return s.Total.Equal(s.ExpectedTotal())
}

// IsCreditNote returns true for negative sales
func (s SaleRecord) IsCreditNote() bool {
	return s.Total.IsNegative()
}

// LaborRevenue returns labor plus assistance, the billable-hours part of a sale
func (s SaleRecord) LaborRevenue() decimal.Decimal {
	return s.Labor.Add(s.Assistance)
}

// Day truncates the sale date to its calendar day in the sale's location
func (s SaleRecord) Day() time.Time {
	return TruncateDay(s.Date)
}

// TruncateDay returns midnight of t's calendar day in t's location
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
