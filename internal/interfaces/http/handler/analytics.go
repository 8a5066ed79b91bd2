package handler

import (
	"context"
	"time"

	appanalytics "github.com/erp/aftersales/internal/application/analytics"
	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/domain/forecast"
	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// defaultInsightsLimit applies when the insights listing has no limit
const defaultInsightsLimit = 50

// AnalyticsService is the application service behind the analytics endpoints
type AnalyticsService interface {
	LoadAndAnalyze(ctx context.Context, q appanalytics.AnalysisQuery) appanalytics.AnalysisBundle
	Ratios(ctx context.Context, q appanalytics.AnalysisQuery) (appanalytics.RatioReport, error)
	Forecast(ctx context.Context, q appanalytics.AnalysisQuery) (forecast.Result, error)
	Allocations(ctx context.Context, q appanalytics.AnalysisQuery) (appanalytics.AllocationReport, error)
	RecentInsights(ctx context.Context, kind string, limit int) ([]analytics.InsightRecord, error)
}

// AnalyticsHandler serves the analysis bundle and its parts
type AnalyticsHandler struct {
	BaseHandler
	service AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// RegisterRoutes mounts the analytics endpoints on rg
func (h *AnalyticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bundle", h.GetBundle)
	rg.GET("/ratios", h.GetRatios)
	rg.GET("/forecast", h.GetForecast)
	rg.GET("/allocations", h.GetAllocations)
	rg.GET("/insights", h.ListInsights)
}

// GetBundle runs a full analysis over the stored ledgers. The bundle is
// always returned; a storage failure sets its degraded flag.
func (h *AnalyticsHandler) GetBundle(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}
	h.Success(c, h.service.LoadAndAnalyze(c.Request.Context(), q))
}

// GetRatios returns the global and per-branch ratios
func (h *AnalyticsHandler) GetRatios(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}
	report, err := h.service.Ratios(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// GetForecast returns the revenue forecast
func (h *AnalyticsHandler) GetForecast(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}
	result, err := h.service.Forecast(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetAllocations returns the automatic cost allocations
func (h *AnalyticsHandler) GetAllocations(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}
	report, err := h.service.Allocations(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ListInsights returns the most recently recorded findings
func (h *AnalyticsHandler) ListInsights(c *gin.Context) {
	var q dto.InsightsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultInsightsLimit
	}

	records, err := h.service.RecentInsights(c.Request.Context(), q.Kind, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.InsightRecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.InsightRecordResponse{
			Kind:       r.Kind,
			Source:     r.Source,
			Content:    r.Content,
			Metadata:   r.Metadata,
			RecordedAt: r.RecordedAt,
		})
	}
	h.SuccessList(c, items, len(items), limit)
}

// parseQuery binds the scope parameters. It writes the error response and
// returns false when they are invalid.
func (h *AnalyticsHandler) parseQuery(c *gin.Context) (appanalytics.AnalysisQuery, bool) {
	var raw dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&raw); err != nil {
		h.ValidationError(c, err)
		return appanalytics.AnalysisQuery{}, false
	}

	q := appanalytics.AnalysisQuery{Branch: raw.Branch}

	if (raw.StartDate == "") != (raw.EndDate == "") {
		h.ErrorWithCode(c, dto.ErrCodeValidationRange, "start_date and end_date must be given together")
		return appanalytics.AnalysisQuery{}, false
	}
	if raw.StartDate != "" {
		// Formats were checked by the binding
		start, _ := time.Parse(dto.DateLayout, raw.StartDate)
		end, _ := time.Parse(dto.DateLayout, raw.EndDate)
		r, err := ledger.NewDateRange(start, end)
		if err != nil {
			h.HandleError(c, err)
			return appanalytics.AnalysisQuery{}, false
		}
		q.Range = &r
	}
	if raw.AsOf != "" {
		asOf, err := time.Parse(dto.DateLayout, raw.AsOf)
		if err != nil {
			h.HandleError(c, shared.ErrInvalidInput)
			return appanalytics.AnalysisQuery{}, false
		}
		q.AsOf = asOf
	}
	return q, true
}
