package router

import (
	"fmt"

	"github.com/erp/aftersales/internal/infrastructure/config"
	"github.com/erp/aftersales/internal/infrastructure/logger"
	"github.com/erp/aftersales/internal/infrastructure/telemetry"
	"github.com/erp/aftersales/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineDeps holds the collaborators of the HTTP engine
type EngineDeps struct {
	Config        *config.Config
	Logger        *zap.Logger
	MeterProvider *telemetry.MeterProvider
}

// NewEngine builds the gin engine with the global middleware chain:
// request id, tracing, recovery, access log, metrics, security headers
// and CORS. Rate limiting is applied per route group, see RateLimiter.
func NewEngine(deps EngineDeps) (*gin.Engine, error) {
	cfg := deps.Config
	log := logger.OrNop(deps.Logger)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: deps.MeterProvider,
		Logger:        log,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))

	return engine, nil
}

// RateLimiter returns the per-client rate limit middleware, or nil when
// limiting is disabled
func RateLimiter(cfg config.HTTPConfig) gin.HandlerFunc {
	if cfg.RateLimit <= 0 {
		return nil
	}
	return middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow))
}
