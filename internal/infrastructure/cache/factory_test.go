package cache

import (
	"testing"

	"github.com/erp/aftersales/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseStoreFactory(t *testing.T) {
	t.Run("redis disabled uses memory", func(t *testing.T) {
		store, err := NewResponseStoreFactory(config.RedisConfig{Enabled: false}).CreateStore()
		require.NoError(t, err)
		defer store.Close()

		_, ok := store.(*InMemoryResponseStore)
		assert.True(t, ok)
	})

	// Port 1 refuses connections immediately
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		store, err := NewResponseStoreFactory(unreachable, WithLogger(nil)).CreateStore()
		require.NoError(t, err)
		defer store.Close()

		_, ok := store.(*InMemoryResponseStore)
		assert.True(t, ok)
	})

	t.Run("fallback can be disabled", func(t *testing.T) {
		_, err := NewResponseStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
