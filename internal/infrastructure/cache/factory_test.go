package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/infrastructure/config"
)

func TestStoreFactory_Disabled(t *testing.T) {
	f := NewStoreFactory(config.RedisConfig{Enabled: false})
	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.Stats().Shared)
}

func TestStoreFactory_Redis(t *testing.T) {
	mr := miniredisServer(t)
	f := NewStoreFactory(config.RedisConfig{
		Enabled:   true,
		Host:      mr.Host(),
		Port:      miniredisPort(t, mr),
		KeyPrefix: "vax:",
	}, WithCacheConfig(Config{TTL: time.Hour, L1TTL: time.Minute, CleanupInterval: time.Minute}))

	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.Stats().Shared)
	require.NoError(t, store.Set(context.Background(), "k", sampleResult("x"), time.Hour))
	assert.True(t, mr.Exists("vax:k"))
}

func TestStoreFactory_Unreachable(t *testing.T) {
	mr := miniredisServer(t)
	host, port := mr.Host(), miniredisPort(t, mr)
	mr.Close()

	cfg := config.RedisConfig{Enabled: true, Host: host, Port: port}

	t.Run("falls back", func(t *testing.T) {
		store, err := NewStoreFactory(cfg).CreateStore(context.Background())
		require.NoError(t, err)
		defer store.Close()
		assert.False(t, store.Stats().Shared)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		store, err := NewStoreFactory(cfg, WithInMemoryFallback(false)).CreateStore(context.Background())
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
