package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"github.com/erp/aftersales/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ResponseStore keeps validated provider answers keyed by prompt digest
type ResponseStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Service turns a bundle summary into validated provider narrative
type Service struct {
	connector strategy.EnrichmentStrategy
	store     ResponseStore
	ttl       time.Duration
	limits    Limits
	timeout   time.Duration
	logger    *zap.Logger
}

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*Service)

// WithResponseStore caches validated answers for ttl
func WithResponseStore(store ResponseStore, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.store = store
		s.ttl = ttl
	}
}

// WithLimits sets the per-list item limits
func WithLimits(limits Limits) ServiceOption {
	return func(s *Service) {
		s.limits = limits.withDefaults()
	}
}

// WithTimeout bounds a single provider call
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.OrNop(l)
	}
}

// NewService creates a service around a connector, which may be nil
func NewService(connector strategy.EnrichmentStrategy, opts ...ServiceOption) *Service {
	s := &Service{
		connector: connector,
		limits:    DefaultLimits(),
		timeout:   30 * time.Second,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the connector name, empty without a connector
func (s *Service) Provider() string {
	if s == nil || s.connector == nil {
		return ""
	}
	return s.connector.Name()
}

// Available reports whether a usable connector is configured
func (s *Service) Available() bool {
	return s != nil && s.connector != nil && s.connector.Available()
}

// Enrich asks the provider about the summary and validates the answer.
// Answers are cached only after they pass validation.
func (s *Service) Enrich(ctx context.Context, summary analytics.Summary) (analytics.Enrichment, error) {
	if !s.Available() {
		return analytics.Enrichment{}, fmt.Errorf("%w: no enrichment provider configured", shared.ErrUnavailable)
	}

	req, err := BuildRequest(summary, s.limits)
	if err != nil {
		return analytics.Enrichment{}, err
	}
	key := CacheKey(s.connector.Name(), req)

	if s.store != nil {
		cached, ok, err := s.store.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("Enrichment cache read failed", zap.Error(err))
		case ok:
			if e, err := ParseResponse(cached, s.limits); err == nil {
				s.logger.Debug("Enrichment served from cache", zap.String("provider", s.connector.Name()))
				return e, nil
			}
		}
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.connector.Enrich(callCtx, req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return analytics.Enrichment{}, fmt.Errorf("%w: %s after %s", shared.ErrTimeout, s.connector.Name(), s.timeout)
		}
		return analytics.Enrichment{}, err
	}

	e, err := ParseResponse(raw, s.limits)
	if err != nil {
		return analytics.Enrichment{}, err
	}
	s.logger.Debug("Enrichment received",
		zap.String("provider", s.connector.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("items", e.Total()),
	)

	if s.store != nil {
		if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("Enrichment cache write failed", zap.Error(err))
		}
	}
	return e, nil
}

// CacheKey is the digest of the provider name and prompt pair
func CacheKey(provider string, req strategy.EnrichmentRequest) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(req.SystemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(req.UserPrompt))
	return hex.EncodeToString(h.Sum(nil))
}
