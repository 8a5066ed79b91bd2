package cache

import (
	"context"
	"time"
)

// ResponseStore caches enrichment provider answers keyed by prompt digest
type ResponseStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}
