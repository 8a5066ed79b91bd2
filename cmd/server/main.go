package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appanalytics "github.com/erp/aftersales/internal/application/analytics"
	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/domain/forecast"
	"github.com/erp/aftersales/internal/infrastructure/cache"
	"github.com/erp/aftersales/internal/infrastructure/config"
	"github.com/erp/aftersales/internal/infrastructure/enrichment"
	"github.com/erp/aftersales/internal/infrastructure/logger"
	"github.com/erp/aftersales/internal/infrastructure/persistence"
	"github.com/erp/aftersales/internal/infrastructure/scheduler"
	"github.com/erp/aftersales/internal/infrastructure/strategy"
	"github.com/erp/aftersales/internal/infrastructure/telemetry"
	"github.com/erp/aftersales/internal/interfaces/http/handler"
	"github.com/erp/aftersales/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.App, cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting after-sales analytics",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.FromAppConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsFromAppConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	analyticsMetrics, err := telemetry.NewAnalyticsMetrics(meterProvider.Meter("aftersales.analytics"))
	if err != nil {
		log.Warn("Analytics metrics disabled", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate SQLite schema", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		if cfg.Database.Driver == config.DriverSQLite {
			dbTracing.DBSystem = "sqlite"
		}
		if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	salesRepo := persistence.NewGormSalesRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	insightStore := persistence.NewGormInsightStore(db.DB)

	// Forecast models and enrichment connectors
	connectors, err := enrichment.Connectors(ctx, cfg.Enrichment)
	if err != nil {
		log.Fatal("Failed to build enrichment connectors", zap.Error(err))
	}
	registry, err := strategy.NewRegistryWithDefaults(strategy.Options{
		SeasonalEnabled: cfg.Analytics.SeasonalEnabled,
		ARIMAEnabled:    cfg.Analytics.ARIMAEnabled,
		LinearEnabled:   cfg.Analytics.LinearEnabled,
		Enrichers:       connectors,
	})
	if err != nil {
		log.Fatal("Failed to register strategies", zap.Error(err))
	}
	log.Info("Strategies registered", zap.Any("availability", registry.Availability()))

	store, err := cache.NewResponseStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
		cache.WithKeyPrefix(cfg.Enrichment.CacheKeyPrefix),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create enrichment cache", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	opts := []appanalytics.Option{
		appanalytics.WithRepositories(salesRepo, expenseRepo),
		appanalytics.WithRecorder(insightStore),
		appanalytics.WithInsightReader(insightStore),
		appanalytics.WithMetrics(analyticsMetrics),
		appanalytics.WithLogger(log),
	}
	var enricher *enrichment.Service
	if connector := registry.GetEnrichmentStrategyOrDefault(cfg.Enrichment.Provider); connector != nil {
		enricher = enrichment.NewService(connector,
			enrichment.WithResponseStore(store, cfg.Enrichment.CacheTTL),
			enrichment.WithLimits(enrichment.Limits{
				MaxItems:      cfg.Enrichment.MaxItems,
				MaxItemLength: cfg.Enrichment.MaxItemLength,
			}),
			enrichment.WithTimeout(cfg.Enrichment.Timeout),
			enrichment.WithLogger(log),
		)
		opts = append(opts, appanalytics.WithEnricher(enricher))
		log.Info("Enrichment configured",
			zap.String("provider", enricher.Provider()),
			zap.Bool("available", enricher.Available()),
		)
	}
	if cfg.Analytics.Technicians > 0 {
		opts = append(opts, appanalytics.WithProductivity(&analytics.ProductivityContext{
			Technicians:    cfg.Analytics.Technicians,
			HourlyTariff:   decimal.NewFromFloat(cfg.Analytics.HourlyTariff),
			AvailableHours: decimal.NewFromFloat(cfg.Analytics.AvailableHours),
		}))
	}

	allocator := analytics.NewCostAllocator(analytics.AllocationConfig{
		CostRatio:                 decimal.NewFromFloat(cfg.Analytics.CostRatio),
		ServicePartsFallbackRatio: decimal.NewFromFloat(cfg.Analytics.ServicePartsFallbackRatio),
		Supplier:                  cfg.Analytics.Supplier,
	})
	ensemble := forecast.NewEnsemble(forecast.Config{
		HorizonDays:    cfg.Analytics.HorizonDays,
		SaturdayWeight: cfg.Analytics.SaturdayWeight,
		TrailingDays:   cfg.Analytics.TrailingDays,
		ModelTimeout:   cfg.Analytics.ModelTimeout,
	}, registry)
	analyticsService := appanalytics.NewService(allocator, ensemble, opts...)

	// Periodic refresh
	if cfg.Scheduler.Enabled {
		refresher, err := scheduler.NewAnalysisRefresher(scheduler.RefresherConfigFrom(cfg.Scheduler), analyticsService, log)
		if err != nil {
			log.Fatal("Failed to create analysis refresher", zap.Error(err))
		}
		if err := refresher.Start(ctx); err != nil {
			log.Fatal("Failed to start analysis refresher", zap.Error(err))
		}
		defer func() {
			if err := refresher.Stop(context.Background()); err != nil {
				log.Error("Error stopping analysis refresher", zap.Error(err))
			}
		}()
		log.Info("Analysis refresher started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Int("window_days", cfg.Scheduler.WindowDays),
		)
	}

	// HTTP
	engine, err := router.NewEngine(router.EngineDeps{
		Config:        cfg,
		Logger:        log,
		MeterProvider: meterProvider,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(version)
	systemHandler.AddCheck("database", handler.PingCheck(db.Ping))
	systemHandler.AddCheck("enrichment", func(context.Context) string {
		if enricher != nil && enricher.Available() {
			return handler.StatusUp
		}
		return handler.StatusDisabled
	})

	analyticsRoutes := router.NewDomainGroup("analytics", "/analytics")
	if limit := router.RateLimiter(cfg.HTTP); limit != nil {
		analyticsRoutes.Use(limit)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimit),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	analyticsRoutes.Mount(handler.NewAnalyticsHandler(analyticsService))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		RegisterRoot(systemHandler).
		Register(analyticsRoutes).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
