package models

import (
	"encoding/json"
	"time"

	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/google/uuid"
)

// InsightRecordModel is the persistence model for a recorded insight
type InsightRecordModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	Kind       string    `gorm:"type:varchar(40);not null;index"`
	Source     string    `gorm:"type:varchar(40);not null"`
	Content    string    `gorm:"type:text;not null"`
	Metadata   string    `gorm:"type:text"`
	RecordedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InsightRecordModel) TableName() string {
	return "insight_records"
}

// ToDomain converts the persistence model to an insight record. Metadata
// that does not decode is dropped rather than failing the read.
func (m *InsightRecordModel) ToDomain() analytics.InsightRecord {
	rec := analytics.InsightRecord{
		Kind:       m.Kind,
		Source:     m.Source,
		Content:    m.Content,
		RecordedAt: m.RecordedAt,
	}
	if m.Metadata != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(m.Metadata), &meta); err == nil {
			rec.Metadata = meta
		}
	}
	return rec
}

// FromDomain populates the persistence model from an insight record
func (m *InsightRecordModel) FromDomain(r analytics.InsightRecord) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Kind = r.Kind
	m.Source = r.Source
	m.Content = r.Content
	m.RecordedAt = r.RecordedAt
	m.Metadata = ""
	if len(r.Metadata) > 0 {
		raw, err := json.Marshal(r.Metadata)
		if err != nil {
			return err
		}
		m.Metadata = string(raw)
	}
	return nil
}
