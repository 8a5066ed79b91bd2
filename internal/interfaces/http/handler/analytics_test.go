package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appanalytics "github.com/erp/aftersales/internal/application/analytics"
	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/domain/forecast"
	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/interfaces/http/dto"
	"github.com/erp/aftersales/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnalyticsService is a mock implementation of AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) LoadAndAnalyze(ctx context.Context, q appanalytics.AnalysisQuery) appanalytics.AnalysisBundle {
	args := m.Called(ctx, q)
	return args.Get(0).(appanalytics.AnalysisBundle)
}

func (m *MockAnalyticsService) Ratios(ctx context.Context, q appanalytics.AnalysisQuery) (appanalytics.RatioReport, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(appanalytics.RatioReport), args.Error(1)
}

func (m *MockAnalyticsService) Forecast(ctx context.Context, q appanalytics.AnalysisQuery) (forecast.Result, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(forecast.Result), args.Error(1)
}

func (m *MockAnalyticsService) Allocations(ctx context.Context, q appanalytics.AnalysisQuery) (appanalytics.AllocationReport, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(appanalytics.AllocationReport), args.Error(1)
}

func (m *MockAnalyticsService) RecentInsights(ctx context.Context, kind string, limit int) ([]analytics.InsightRecord, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.InsightRecord), args.Error(1)
}

func setupAnalyticsRouter(svc AnalyticsService) *gin.Engine {
	middleware.SetupValidator()
	router := gin.New()
	router.Use(middleware.RequestID())
	NewAnalyticsHandler(svc).RegisterRoutes(router.Group("/api/v1/analytics"))
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func day(s string) time.Time {
	d, _ := time.Parse(dto.DateLayout, s)
	return d
}

func TestAnalyticsHandler_GetBundle(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	bundle := appanalytics.AnalysisBundle{
		AnalysisID:      "a-1",
		Recommendations: []string{"Review pricing"},
		Degraded:        true,
	}
	svc.On("LoadAndAnalyze", mock.Anything, mock.MatchedBy(func(q appanalytics.AnalysisQuery) bool {
		return q.Branch == "North" &&
			q.Range != nil &&
			q.Range.Start.Equal(day("2024-03-01")) &&
			q.Range.End.Equal(day("2024-03-31")) &&
			q.AsOf.Equal(day("2024-03-20"))
	})).Return(bundle)

	w := get(router, "/api/v1/analytics/bundle?start_date=2024-03-01&end_date=2024-03-31&branch=North&as_of=2024-03-20")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[appanalytics.AnalysisBundle]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "a-1", resp.Data.AnalysisID)
	assert.True(t, resp.Data.Degraded)
	assert.Equal(t, []string{"Review pricing"}, resp.Data.Recommendations)
	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_GetBundle_NoScope(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	svc.On("LoadAndAnalyze", mock.Anything, appanalytics.AnalysisQuery{}).Return(appanalytics.AnalysisBundle{AnalysisID: "a-2"})

	w := get(router, "/api/v1/analytics/bundle")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_QueryValidation(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCode string
	}{
		{"malformed date", "/api/v1/analytics/ratios?start_date=03-01-2024&end_date=2024-03-31", dto.ErrCodeValidation},
		{"malformed as_of", "/api/v1/analytics/forecast?as_of=tomorrow", dto.ErrCodeValidation},
		{"end before start", "/api/v1/analytics/bundle?start_date=2024-03-31&end_date=2024-03-01", dto.ErrCodeValidationRange},
		{"half open range", "/api/v1/analytics/allocations?start_date=2024-03-01", dto.ErrCodeValidationRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalyticsService)
			router := setupAnalyticsRouter(svc)

			w := get(router, tt.path)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			svc.AssertNotCalled(t, "LoadAndAnalyze", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "Ratios", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalyticsHandler_GetRatios(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	report := appanalytics.RatioReport{
		Global: analytics.RatioSet{Scope: "", Revenue: decimal.NewFromInt(3200)},
		Branches: []analytics.RatioSet{
			{Scope: "North", Revenue: decimal.NewFromInt(2100)},
		},
	}
	svc.On("Ratios", mock.Anything, mock.Anything).Return(report, nil)

	w := get(router, "/api/v1/analytics/ratios")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[appanalytics.RatioReport]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Global.Revenue.Equal(decimal.NewFromInt(3200)))
	require.Len(t, resp.Data.Branches, 1)
	assert.Equal(t, "North", resp.Data.Branches[0].Scope)
}

func TestAnalyticsHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		method         string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"ratios unavailable", "/api/v1/analytics/ratios", "Ratios", shared.ErrUnavailable, http.StatusServiceUnavailable, dto.ErrCodeUnavailable},
		{"forecast storage failure", "/api/v1/analytics/forecast", "Forecast", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
		{"allocations timeout", "/api/v1/analytics/allocations", "Allocations", context.DeadlineExceeded, http.StatusGatewayTimeout, dto.ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalyticsService)
			router := setupAnalyticsRouter(svc)

			switch tt.method {
			case "Ratios":
				svc.On("Ratios", mock.Anything, mock.Anything).Return(appanalytics.RatioReport{}, tt.err)
			case "Forecast":
				svc.On("Forecast", mock.Anything, mock.Anything).Return(forecast.Result{}, tt.err)
			case "Allocations":
				svc.On("Allocations", mock.Anything, mock.Anything).Return(appanalytics.AllocationReport{}, tt.err)
			}

			w := get(router, tt.path)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
		})
	}
}

func TestAnalyticsHandler_GetForecast(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	svc.On("Forecast", mock.Anything, mock.Anything).Return(forecast.Result{
		Projected:  12500,
		Available:  true,
		Confidence: forecast.ConfidenceHigh,
		Method:     "ensemble",
	}, nil)

	w := get(router, "/api/v1/analytics/forecast?branch=South")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[forecast.Result]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Available)
	assert.InDelta(t, 12500, resp.Data.Projected, 0.001)
	assert.Equal(t, forecast.ConfidenceHigh, resp.Data.Confidence)
}

func TestAnalyticsHandler_ListInsights(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	recordedAt := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	svc.On("RecentInsights", mock.Anything, "anomaly", 10).Return([]analytics.InsightRecord{
		{
			Kind:       "anomaly",
			Source:     "local",
			Content:    "Revenue spike",
			Metadata:   map[string]any{"analysis_id": "a-1"},
			RecordedAt: recordedAt,
		},
	}, nil)

	w := get(router, "/api/v1/analytics/insights?kind=anomaly&limit=10")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[[]dto.InsightRecordResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Revenue spike", resp.Data[0].Content)
	assert.Equal(t, "a-1", resp.Data[0].Metadata["analysis_id"])
	assert.True(t, resp.Data[0].RecordedAt.Equal(recordedAt))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.Limit)
}

func TestAnalyticsHandler_ListInsights_Defaults(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	svc.On("RecentInsights", mock.Anything, "", defaultInsightsLimit).Return([]analytics.InsightRecord{}, nil)

	w := get(router, "/api/v1/analytics/insights")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[[]dto.InsightRecordResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_ListInsights_Invalid(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	w := get(router, "/api/v1/analytics/insights?kind=weather&limit=1000")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Len(t, resp.Error.Details, 2)
	svc.AssertNotCalled(t, "RecentInsights", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyticsHandler_ListInsights_Unavailable(t *testing.T) {
	svc := new(MockAnalyticsService)
	router := setupAnalyticsRouter(svc)

	svc.On("RecentInsights", mock.Anything, "", defaultInsightsLimit).Return(nil, shared.ErrUnavailable)

	w := get(router, "/api/v1/analytics/insights")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
