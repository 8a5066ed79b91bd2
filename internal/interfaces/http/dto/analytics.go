package dto

import "time"

// DateLayout is the wire format of every date query parameter
const DateLayout = "2006-01-02"

// AnalyticsQuery holds the scope parameters shared by the analytics endpoints
type AnalyticsQuery struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	AsOf      string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
	Branch    string `form:"branch" binding:"omitempty,max=64"`
}

// InsightsQuery holds the parameters of the recorded insights listing
type InsightsQuery struct {
	Kind  string `form:"kind" binding:"omitempty,oneof=trend alert recommendation branch_recommendation mix_recommendation opportunity risk anomaly critical_alert forecast"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// InsightRecordResponse is one recorded finding
type InsightRecordResponse struct {
	Kind       string         `json:"kind"`
	Source     string         `json:"source"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// HealthResponse reports the state of the service and its collaborators
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	GoVersion  string            `json:"go_version"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}
