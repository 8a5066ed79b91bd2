package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/domain/forecast"
	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/infrastructure/logger"
	"github.com/erp/aftersales/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Triggers reported to metrics
const (
	TriggerAPI       = "http"
	TriggerScheduler = "scheduler"
)

// Enrichment outcomes reported to metrics and spans
const (
	enrichmentSkipped = "skipped"
	enrichmentOK      = "ok"
	enrichmentFailed  = "failed"
)

// Enricher asks a narrative provider for additional findings
type Enricher interface {
	Provider() string
	Available() bool
	Enrich(ctx context.Context, summary analytics.Summary) (analytics.Enrichment, error)
}

// InsightReader lists recorded findings
type InsightReader interface {
	FindRecent(ctx context.Context, kind string, limit int) ([]analytics.InsightRecord, error)
}

// Service builds analysis bundles from the sales and expense ledgers.
// It keeps no state between calls besides its collaborators.
type Service struct {
	allocator    *analytics.CostAllocator
	ensemble     *forecast.Ensemble
	enricher     Enricher
	recorder     analytics.InsightRecorder
	reader       InsightReader
	salesRepo    ledger.SalesRepository
	expenseRepo  ledger.ExpenseRepository
	productivity *analytics.ProductivityContext
	metrics      *telemetry.AnalyticsMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithEnricher sets the narrative provider
func WithEnricher(e Enricher) Option {
	return func(s *Service) {
		s.enricher = e
	}
}

// WithRecorder sets where findings are persisted
func WithRecorder(r analytics.InsightRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithInsightReader sets the source of RecentInsights
func WithInsightReader(r InsightReader) Option {
	return func(s *Service) {
		s.reader = r
	}
}

// WithRepositories sets the ledger repositories used by LoadAndAnalyze
func WithRepositories(sales ledger.SalesRepository, expenses ledger.ExpenseRepository) Option {
	return func(s *Service) {
		s.salesRepo = sales
		s.expenseRepo = expenses
	}
}

// WithProductivity sets the workshop capacity used when a request has none
func WithProductivity(p *analytics.ProductivityContext) Option {
	return func(s *Service) {
		s.productivity = p
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.AnalyticsMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new analytics Service
func NewService(allocator *analytics.CostAllocator, ensemble *forecast.Ensemble, opts ...Option) *Service {
	s := &Service{
		allocator: allocator,
		ensemble:  ensemble,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.allocator == nil {
		s.allocator = analytics.NewCostAllocator(analytics.DefaultAllocationConfig())
	}
	if s.ensemble == nil {
		s.ensemble = forecast.NewEnsemble(forecast.DefaultConfig(), forecast.Strategies{})
	}
	s.logger = logger.OrNop(s.logger).Named("analytics")
	return s
}

// run describes one invocation for logs and metrics
type run struct {
	trigger  string
	degraded bool
}

// Analyze builds a bundle from in-memory ledgers. It never fails: missing
// data, model failures and provider errors shrink the bundle instead.
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) AnalysisBundle {
	return s.analyze(ctx, req, run{trigger: TriggerAPI})
}

// LoadAndAnalyze reads the ledgers selected by q and analyzes them. When
// the repositories fail the bundle is built from an empty ledger and
// marked degraded.
func (s *Service) LoadAndAnalyze(ctx context.Context, q AnalysisQuery) AnalysisBundle {
	req := AnalysisRequest{Range: q.Range, Branch: q.Branch, AsOf: q.AsOf}
	sales, expenses, err := s.load(ctx, q.Filter())
	if err != nil {
		s.loggerFor(ctx).Error("Failed to load ledgers, analyzing an empty ledger", zap.Error(err))
		return s.analyze(ctx, req, run{trigger: TriggerAPI, degraded: true})
	}
	req.Sales, req.Expenses = sales, expenses
	return s.analyze(ctx, req, run{trigger: TriggerAPI})
}

// RunScheduled analyzes the given window so its findings are recorded.
// Unlike LoadAndAnalyze it reports repository failures.
func (s *Service) RunScheduled(ctx context.Context, window ledger.DateRange) error {
	filter := ledger.Filter{Range: &window}
	sales, expenses, err := s.load(ctx, filter)
	if err != nil {
		return fmt.Errorf("load ledgers: %w", err)
	}
	bundle := s.analyze(ctx, AnalysisRequest{
		Sales:    sales,
		Expenses: expenses,
		Range:    &window,
		AsOf:     window.End,
	}, run{trigger: TriggerScheduler})
	s.logger.Info("Scheduled analysis finished",
		zap.String("analysis_id", bundle.AnalysisID),
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
		zap.Int("sales", len(sales)),
	)
	return nil
}

// Ratios computes the global and per-branch post-sale ratios of a scope
func (s *Service) Ratios(ctx context.Context, q AnalysisQuery) (RatioReport, error) {
	sales, expenses, err := s.scope(ctx, q)
	if err != nil {
		return RatioReport{}, err
	}
	return ratiosOf(sales, expenses.Expenses), nil
}

// Forecast projects revenue from the sales selected by q
func (s *Service) Forecast(ctx context.Context, q AnalysisQuery) (forecast.Result, error) {
	sales, _, err := s.load(ctx, q.Filter())
	if err != nil {
		return forecast.Result{}, err
	}
	return s.ensemble.Forecast(ctx, sales), nil
}

// Allocations returns the synthetic cost entries of a scope with the
// merged expense totals
func (s *Service) Allocations(ctx context.Context, q AnalysisQuery) (AllocationReport, error) {
	_, expenses, err := s.scope(ctx, q)
	if err != nil {
		return AllocationReport{}, err
	}
	allocated := expenses.Allocated
	if allocated == nil {
		allocated = []ledger.ExpenseRecord{}
	}
	return AllocationReport{Allocated: allocated, Totals: expenses}, nil
}

// RecentInsights lists recorded findings, newest first
func (s *Service) RecentInsights(ctx context.Context, kind string, limit int) ([]analytics.InsightRecord, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("%w: no insight store configured", shared.ErrUnavailable)
	}
	return s.reader.FindRecent(ctx, kind, limit)
}

func (s *Service) scope(ctx context.Context, q AnalysisQuery) ([]ledger.SaleRecord, *analytics.ExpenseContext, error) {
	sales, manual, err := s.load(ctx, q.Filter())
	if err != nil {
		return nil, nil, err
	}
	return sales, s.allocator.BuildExpenseContext(sales, manual), nil
}

func (s *Service) load(ctx context.Context, filter ledger.Filter) ([]ledger.SaleRecord, []ledger.ExpenseRecord, error) {
	if s.salesRepo == nil || s.expenseRepo == nil {
		return nil, nil, fmt.Errorf("%w: no ledger repositories configured", shared.ErrUnavailable)
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "load")
	defer span.End()

	sales, err := s.salesRepo.FindSales(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	expenses, err := s.expenseRepo.FindExpenses(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSalesCount, len(sales),
		telemetry.SpanAttrExpenseCount, len(expenses),
	)
	return sales, expenses, nil
}

func (s *Service) analyze(ctx context.Context, req AnalysisRequest, r run) (bundle AnalysisBundle) {
	start := s.now()
	id := uuid.New().String()
	ctx, log := logger.WithAnalysisID(ctx, s.loggerFor(ctx), id)
	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "analyze",
		telemetry.WithAttribute(telemetry.SpanAttrAnalysisID, id),
		telemetry.WithAttribute(telemetry.SpanAttrBranch, req.Branch),
	)
	defer span.End()

	bundle = emptyBundle(id, start)
	bundle.Degraded = r.degraded
	enrichment := enrichmentSkipped
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("analysis panicked: %v", rec)
			telemetry.RecordError(span, err)
			log.Error("Analysis aborted, returning partial bundle", zap.Error(err))
		}
		s.metrics.RecordAnalysis(ctx, telemetry.AnalysisObservation{
			Trigger:           r.trigger,
			Duration:          s.now().Sub(start),
			ForecastMethod:    bundle.Forecast.Method,
			ForecastAvailable: bundle.Forecast.Available,
			EnrichmentStatus:  enrichment,
			Provider:          bundle.EnrichmentStatus.Provider,
			Anomalies:         len(bundle.Anomalies),
			CriticalAlerts:    len(bundle.CriticalAlerts),
			Degraded:          r.degraded,
			ProjectedRevenue:  bundle.Forecast.Projected,
		})
	}()

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = start
	}
	productivity := req.Productivity
	if productivity == nil {
		productivity = s.productivity
	}

	filter := ledger.Filter{Range: req.Range, Branch: req.Branch}
	sales := ledger.FilterSales(req.Sales, filter)
	expenses := req.ExpenseContext
	if expenses == nil {
		expenses = s.allocator.BuildExpenseContext(sales, ledger.FilterExpenses(req.Expenses, filter))
	}
	bundle.Expenses = expenses
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSalesCount, len(sales),
		telemetry.SpanAttrExpenseCount, len(expenses.Expenses),
	)

	bundle.Ratios = ratiosOf(sales, expenses.Expenses)

	findings := analytics.BuildInsights(analytics.InsightInput{
		Sales:        sales,
		Expenses:     expenses,
		Global:       bundle.Ratios.Global,
		Branches:     bundle.Ratios.Branches,
		AsOf:         asOf,
		Productivity: productivity,
	})
	bundle.Insights = findings.Insights
	bundle.Recommendations = findings.Recommendations
	bundle.BranchRecommendations = findings.BranchRecommendations
	bundle.MixRecommendations = findings.MixRecommendations

	bundle.Forecast = s.ensemble.Forecast(ctx, sales)
	bundle.Anomalies = analytics.DetectAnomalies(sales)
	bundle.CriticalAlerts = analytics.EvaluateCriticalAlerts(analytics.AlertInput{
		Sales:    sales,
		Expenses: expenses,
		AsOf:     asOf,
	})
	telemetry.SetAttributes(span, telemetry.SpanAttrForecastMethod, bundle.Forecast.Method)

	var extra analytics.Enrichment
	extra, enrichment = s.enrich(ctx, log, &bundle, analytics.SummaryInput{
		Sales:        sales,
		Expenses:     expenses,
		Global:       bundle.Ratios.Global,
		Branches:     bundle.Ratios.Branches,
		Range:        req.Range,
		AsOf:         asOf,
		Productivity: productivity,
		Forecast: analytics.ForecastHeadline{
			Projected:  bundle.Forecast.Projected,
			Available:  bundle.Forecast.Available,
			Confidence: string(bundle.Forecast.Confidence),
			Method:     bundle.Forecast.Method,
		},
		Anomalies: bundle.Anomalies,
		Alerts:    bundle.CriticalAlerts,
	})
	telemetry.SetAttributes(span, telemetry.SpanAttrEnrichmentStatus, enrichment)

	s.record(ctx, log, bundle, findings, extra)

	log.Info("Analysis completed",
		zap.String("trigger", r.trigger),
		zap.Int("sales", len(sales)),
		zap.String("forecast_method", bundle.Forecast.Method),
		zap.Int("anomalies", len(bundle.Anomalies)),
		zap.Int("critical_alerts", len(bundle.CriticalAlerts)),
		zap.String("enrichment", enrichment),
		zap.Bool("degraded", r.degraded),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return bundle
}

// enrich asks the provider for extra findings and appends them after the
// local ones. Provider failures only set the status error.
func (s *Service) enrich(ctx context.Context, log *zap.Logger, bundle *AnalysisBundle, in analytics.SummaryInput) (analytics.Enrichment, string) {
	if s.enricher == nil || !s.enricher.Available() {
		return analytics.Enrichment{}, enrichmentSkipped
	}
	provider := s.enricher.Provider()
	bundle.EnrichmentStatus.Provider = provider

	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "enrich",
		telemetry.WithAttribute(telemetry.SpanAttrProvider, provider))
	defer span.End()

	e, err := s.enricher.Enrich(ctx, analytics.BuildSummary(in))
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Enrichment failed, keeping local findings",
			zap.String("provider", provider),
			zap.Error(err),
		)
		bundle.EnrichmentStatus.Error = err.Error()
		return analytics.Enrichment{}, enrichmentFailed
	}

	bundle.Insights.Trends = append(bundle.Insights.Trends, e.Trends...)
	bundle.Insights.Alerts = append(bundle.Insights.Alerts, e.Alerts...)
	bundle.Recommendations = append(bundle.Recommendations, e.Recommendations...)
	bundle.BranchRecommendations = append(bundle.BranchRecommendations, e.BranchRecommendations...)
	bundle.MixRecommendations = append(bundle.MixRecommendations, e.MixRecommendations...)
	bundle.Opportunities = append(bundle.Opportunities, e.Opportunities...)
	bundle.Risks = append(bundle.Risks, e.Risks...)
	bundle.EnrichmentStatus.Active = true
	bundle.EnrichmentStatus.Counts = analytics.CountsOf(e)
	return e, enrichmentOK
}

// loggerFor prefers the request-scoped logger carried by ctx
func (s *Service) loggerFor(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(logger.LoggerKey).(*zap.Logger); ok && l != nil {
		return l.Named("analytics")
	}
	return s.logger
}

func ratiosOf(sales []ledger.SaleRecord, expenses []ledger.ExpenseRecord) RatioReport {
	branches := analytics.CalculateBranchRatios(sales, expenses, analytics.SegmentPostSale)
	if branches == nil {
		branches = []analytics.RatioSet{}
	}
	return RatioReport{
		Global:   analytics.CalculateRatios(sales, expenses, analytics.SegmentPostSale, ""),
		Branches: branches,
	}
}
