package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/infrastructure/config"
)

// StoreFactory creates publication stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           Config
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithCacheConfig sets the cache timings
func WithCacheConfig(cfg Config) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.cacheConfig = cfg
	}
}

// WithInMemoryFallback controls whether to fall back to the local store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		cacheConfig:           DefaultConfig(),
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore builds the tiered store. Redis backs the second tier only
// when it is enabled and reachable.
func (f *StoreFactory) CreateStore(ctx context.Context) (*TieredPublicationStore, error) {
	l1 := NewInMemoryPublicationStore(f.cacheConfig.CleanupInterval)
	opts := []TieredOption{WithL1TTL(f.cacheConfig.L1TTL), WithTieredLogger(f.logger)}

	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory publication cache")
		return NewTieredPublicationStore(l1, nil, opts...), nil
	}

	client, err := NewRedisClient(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		if !f.allowInMemoryFallback {
			_ = l1.Close()
			return nil, fmt.Errorf("Redis required for publication cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory publication cache", zap.Error(err))
		return NewTieredPublicationStore(l1, nil, opts...), nil
	}

	f.logger.Info("using Redis publication cache",
		zap.String("host", f.redisConfig.Host),
		zap.Int("port", f.redisConfig.Port),
	)
	l2 := NewRedisPublicationStore(client, f.redisConfig.KeyPrefix)
	return NewTieredPublicationStore(l1, l2, opts...), nil
}
