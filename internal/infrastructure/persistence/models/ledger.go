package models

import (
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for one sales ledger line
type SaleModel struct {
	ID          string              `gorm:"type:varchar(64);primary_key"`
	Date        time.Time           `gorm:"not null;index"`
	Branch      string              `gorm:"type:varchar(100);not null;index"`
	Client      string              `gorm:"type:varchar(200);not null;default:''"`
	Channel     string              `gorm:"type:varchar(4);not null"`
	Labor       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Assistance  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Parts       decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	ThirdParty  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Discount    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Total       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ReceiptType string              `gorm:"type:varchar(20)"`
	ReceiptNo   string              `gorm:"type:varchar(50)"`
	CreatedAt   time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a ledger sale
func (m *SaleModel) ToDomain() ledger.SaleRecord {
	return ledger.SaleRecord{
		ID:          m.ID,
		Date:        m.Date,
		Branch:      m.Branch,
		Client:      m.Client,
		Channel:     ledger.Channel(m.Channel),
		Labor:       m.Labor,
		Assistance:  m.Assistance,
		Parts:       m.Parts,
		ThirdParty:  m.ThirdParty,
		Discount:    m.Discount,
		Total:       m.Total,
		ReceiptType: m.ReceiptType,
		ReceiptNo:   m.ReceiptNo,
	}
}

// FromDomain populates the persistence model from a ledger sale
func (m *SaleModel) FromDomain(s ledger.SaleRecord) {
	m.ID = s.ID
	m.Date = s.Date
	m.Branch = s.Branch
	m.Client = s.Client
	m.Channel = s.Channel.String()
	m.Labor = s.Labor
	m.Assistance = s.Assistance
	m.Parts = s.Parts
	m.ThirdParty = s.ThirdParty
	m.Discount = s.Discount
	m.Total = s.Total
	m.ReceiptType = s.ReceiptType
	m.ReceiptNo = s.ReceiptNo
}

// ExpenseModel is the persistence model for one expense ledger line
type ExpenseModel struct {
	ID              string          `gorm:"type:varchar(64);primary_key"`
	Date            time.Time       `gorm:"not null;index"`
	Branch          string          `gorm:"type:varchar(100);not null;index"`
	Area            string          `gorm:"type:varchar(50)"`
	Kind            string          `gorm:"type:varchar(20);not null"`
	Classification  string          `gorm:"type:varchar(100)"`
	Provider        string          `gorm:"type:varchar(200)"`
	Description     string          `gorm:"type:varchar(500)"`
	AmountUSD       decimal.Decimal `gorm:"column:amount_usd;type:decimal(18,4);not null"`
	PostSalePercent decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
	ServicePercent  decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
	PartsPercent    decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
	PostSaleAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ServiceAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PartsAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Automatic       bool            `gorm:"not null;default:false"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a ledger expense. Stored derived
// amounts are ignored and recomputed from the allocation.
func (m *ExpenseModel) ToDomain() ledger.ExpenseRecord {
	e := ledger.ExpenseRecord{
		ID:             m.ID,
		Date:           m.Date,
		Branch:         m.Branch,
		Area:           m.Area,
		Kind:           ledger.ParseCostKind(m.Kind),
		Classification: m.Classification,
		Provider:       m.Provider,
		Description:    m.Description,
		AmountUSD:      m.AmountUSD,
		Allocation: ledger.Allocation{
			PostSale: m.PostSalePercent,
			Service:  m.ServicePercent,
			Parts:    m.PartsPercent,
		},
		Automatic: m.Automatic,
	}
	return e.WithDerivedAmounts()
}

// FromDomain populates the persistence model from a ledger expense
func (m *ExpenseModel) FromDomain(e ledger.ExpenseRecord) {
	e = e.WithDerivedAmounts()
	m.ID = e.ID
	m.Date = e.Date
	m.Branch = e.Branch
	m.Area = e.Area
	m.Kind = e.Kind.String()
	m.Classification = e.Classification
	m.Provider = e.Provider
	m.Description = e.Description
	m.AmountUSD = e.AmountUSD
	m.PostSalePercent = e.Allocation.PostSale
	m.ServicePercent = e.Allocation.Service
	m.PartsPercent = e.Allocation.Parts
	m.PostSaleAmount = e.PostSaleAmount
	m.ServiceAmount = e.ServiceAmount
	m.PartsAmount = e.PartsAmount
	m.Automatic = e.Automatic
}
