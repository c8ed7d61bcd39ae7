package cache

import (
	"context"
	"time"

	"github.com/vaxdash/backend/internal/domain/literature"
)

// PublicationStore caches search results by query key.
// Get returns (nil, nil) on a miss.
type PublicationStore interface {
	Get(ctx context.Context, key string) (*literature.SearchResult, error)
	Set(ctx context.Context, key string, result *literature.SearchResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config holds cache timings
type Config struct {
	// TTL is how long a search result stays valid
	TTL time.Duration
	// L1TTL bounds the local copy of a result read from L2
	L1TTL time.Duration
	// CleanupInterval is how often expired local entries are removed
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache timings
func DefaultConfig() Config {
	return Config{
		TTL:             time.Hour,
		L1TTL:           10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// cloneResult copies a result so callers cannot mutate cached state
func cloneResult(r *literature.SearchResult) *literature.SearchResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Publications = append([]literature.Publication(nil), r.Publications...)
	return &out
}
