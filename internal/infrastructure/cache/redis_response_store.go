package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "aftersales:enrichment:"

// RedisResponseStore implements ResponseStore using Redis.
// Answers are shared between instances and expire with the key TTL.
type RedisResponseStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisResponseStore connects to Redis and verifies the connection
func NewRedisResponseStore(cfg RedisConfig) (*RedisResponseStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisResponseStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisResponseStoreWithClient creates a store with an existing Redis client
func NewRedisResponseStoreWithClient(client *redis.Client, keyPrefix string) *RedisResponseStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisResponseStore{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached answer for key
func (s *RedisResponseStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read enrichment cache: %w", err)
	}
	return v, true, nil
}

// Set stores an answer with a TTL
func (s *RedisResponseStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write enrichment cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisResponseStore) Close() error {
	return s.client.Close()
}

var _ ResponseStore = (*RedisResponseStore)(nil)
