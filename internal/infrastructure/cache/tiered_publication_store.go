package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/domain/literature"
)

// TieredPublicationStore implements a two-tier caching strategy
// L1: Local in-memory cache (fast, but local to instance)
// L2: Redis cache (slower, but shared across instances), optional
type TieredPublicationStore struct {
	l1     *InMemoryPublicationStore
	l2     PublicationStore
	l1TTL  time.Duration
	logger *zap.Logger

	// Stats for monitoring
	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
}

// TieredOption is a functional option for configuring the store
type TieredOption func(*TieredPublicationStore)

// WithL1TTL bounds how long a result read from L2 is kept locally
func WithL1TTL(ttl time.Duration) TieredOption {
	return func(s *TieredPublicationStore) {
		if ttl > 0 {
			s.l1TTL = ttl
		}
	}
}

// WithTieredLogger sets the logger for the store
func WithTieredLogger(logger *zap.Logger) TieredOption {
	return func(s *TieredPublicationStore) {
		s.logger = logger
	}
}

// NewTieredPublicationStore creates a tiered store. l2 may be nil, in which
// case only the local tier is used.
func NewTieredPublicationStore(l1 *InMemoryPublicationStore, l2 PublicationStore, opts ...TieredOption) *TieredPublicationStore {
	s := &TieredPublicationStore{
		l1:     l1,
		l2:     l2,
		l1TTL:  DefaultConfig().L1TTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a result (L1 -> L2)
func (s *TieredPublicationStore) Get(ctx context.Context, key string) (*literature.SearchResult, error) {
	// Try L1 first
	result, err := s.l1.Get(ctx, key)
	if err != nil {
		s.logger.Warn("L1 cache error", zap.String("key", key), zap.Error(err))
	}
	if result != nil {
		atomic.AddInt64(&s.l1Hits, 1)
		return result, nil
	}
	atomic.AddInt64(&s.l1Misses, 1)

	if s.l2 == nil {
		return nil, nil
	}

	// Try L2
	result, err = s.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if result == nil {
		atomic.AddInt64(&s.l2Misses, 1)
		return nil, nil
	}
	atomic.AddInt64(&s.l2Hits, 1)

	// Populate L1 cache
	if err := s.l1.Set(ctx, key, result, s.l1TTL); err != nil {
		s.logger.Warn("Failed to populate L1 cache", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

// Set stores a result in both tiers. The local copy never outlives the L2 TTL.
func (s *TieredPublicationStore) Set(ctx context.Context, key string, result *literature.SearchResult, ttl time.Duration) error {
	l1TTL := ttl
	if s.l2 != nil {
		if err := s.l2.Set(ctx, key, result, ttl); err != nil {
			return err
		}
		if s.l1TTL < l1TTL {
			l1TTL = s.l1TTL
		}
	}

	if err := s.l1.Set(ctx, key, result, l1TTL); err != nil {
		s.logger.Warn("Failed to set L1 cache", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Delete removes a result from both tiers
func (s *TieredPublicationStore) Delete(ctx context.Context, key string) error {
	if s.l2 != nil {
		if err := s.l2.Delete(ctx, key); err != nil {
			return err
		}
	}
	if err := s.l1.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete from L1 cache", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Close releases any resources held by the store
func (s *TieredPublicationStore) Close() error {
	var lastErr error
	if err := s.l1.Close(); err != nil {
		lastErr = err
	}
	if s.l2 != nil {
		if err := s.l2.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Stats holds cache hit/miss counters
type Stats struct {
	L1Hits   int64 `json:"l1_hits"`
	L1Misses int64 `json:"l1_misses"`
	L2Hits   int64 `json:"l2_hits"`
	L2Misses int64 `json:"l2_misses"`
	L1Size   int   `json:"l1_size"`
	Shared   bool  `json:"shared"`
}

// Stats returns cache statistics
func (s *TieredPublicationStore) Stats() Stats {
	return Stats{
		L1Hits:   atomic.LoadInt64(&s.l1Hits),
		L1Misses: atomic.LoadInt64(&s.l1Misses),
		L2Hits:   atomic.LoadInt64(&s.l2Hits),
		L2Misses: atomic.LoadInt64(&s.l2Misses),
		L1Size:   s.l1.Size(),
		Shared:   s.l2 != nil,
	}
}

// Ensure TieredPublicationStore implements PublicationStore
var _ PublicationStore = (*TieredPublicationStore)(nil)
