package cache

import (
	"fmt"

	"github.com/erp/aftersales/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ResponseStoreFactory creates response stores based on configuration
type ResponseStoreFactory struct {
	redisConfig           config.RedisConfig
	keyPrefix             string
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ResponseStoreFactoryOption is a functional option for configuring the factory
type ResponseStoreFactoryOption func(*ResponseStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ResponseStoreFactoryOption {
	return func(f *ResponseStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ResponseStoreFactoryOption {
	return func(f *ResponseStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(prefix string) ResponseStoreFactoryOption {
	return func(f *ResponseStoreFactory) {
		f.keyPrefix = prefix
	}
}

// NewResponseStoreFactory creates a new factory
func NewResponseStoreFactory(cfg config.RedisConfig, opts ...ResponseStoreFactoryOption) *ResponseStoreFactory {
	f := &ResponseStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise an in-memory store if fallback is allowed.
func (f *ResponseStoreFactory) CreateStore() (ResponseStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory enrichment cache")
		return NewInMemoryResponseStore(), nil
	}

	store, err := NewRedisResponseStore(RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.keyPrefix,
	})
	if err == nil {
		f.logger.Info("Using Redis enrichment cache")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for enrichment cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory enrichment cache", zap.Error(err))
	return NewInMemoryResponseStore(), nil
}
