package persistence

import (
	"context"
	"fmt"

	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const defaultInsightLimit = 50

// GormInsightStore implements analytics.InsightRecorder using GORM
type GormInsightStore struct {
	db *gorm.DB
}

// NewGormInsightStore creates a new GormInsightStore
func NewGormInsightStore(db *gorm.DB) *GormInsightStore {
	return &GormInsightStore{db: db}
}

// Record persists one insight
func (s *GormInsightStore) Record(ctx context.Context, record analytics.InsightRecord) error {
	var model models.InsightRecordModel
	if err := model.FromDomain(record); err != nil {
		return fmt.Errorf("encode insight metadata: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("record insight: %w", err)
	}
	return nil
}

// FindRecent returns the newest insights first. An empty kind matches all
// kinds; a non-positive limit falls back to 50.
func (s *GormInsightStore) FindRecent(ctx context.Context, kind string, limit int) ([]analytics.InsightRecord, error) {
	if limit <= 0 {
		limit = defaultInsightLimit
	}
	query := s.db.WithContext(ctx).Model(&models.InsightRecordModel{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var rows []models.InsightRecordModel
	if err := query.Order("recorded_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find insights: %w", err)
	}
	records := make([]analytics.InsightRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}
