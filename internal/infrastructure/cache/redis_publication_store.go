package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vaxdash/backend/internal/domain/literature"
)

// DefaultKeyPrefix namespaces the cached search results
const DefaultKeyPrefix = "vaxdash:"

// RedisPublicationStore implements PublicationStore using Redis with JSON
// payloads. It lets several dashboard instances share search results.
type RedisPublicationStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisPublicationStore creates a store with an existing Redis client
func NewRedisPublicationStore(client *redis.Client, keyPrefix string) *RedisPublicationStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisPublicationStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get loads a cached result
func (s *RedisPublicationStore) Get(ctx context.Context, key string) (*literature.SearchResult, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached publications: %w", err)
	}

	var result literature.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A payload written by an incompatible version is treated as a miss
		_ = s.client.Del(ctx, s.keyPrefix+key).Err()
		return nil, nil
	}
	return &result, nil
}

// Set stores a result with a TTL
func (s *RedisPublicationStore) Set(ctx context.Context, key string, result *literature.SearchResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode publications: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache publications: %w", err)
	}
	return nil
}

// Delete removes a cached result
func (s *RedisPublicationStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached publications: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisPublicationStore) Close() error {
	return s.client.Close()
}

// Ensure RedisPublicationStore implements PublicationStore
var _ PublicationStore = (*RedisPublicationStore)(nil)
