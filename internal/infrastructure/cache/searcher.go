package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/vaxdash/backend/internal/domain/literature"
)

// CachingSearcher memoizes a literature.Searcher. Identical queries that
// arrive while a search is in flight share its result.
type CachingSearcher struct {
	next    literature.Searcher
	store   PublicationStore
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// DefaultSearchTimeout bounds a shared upstream search
const DefaultSearchTimeout = time.Minute

// SearcherOption is a functional option for CachingSearcher
type SearcherOption func(*CachingSearcher)

// WithSearchTimeout bounds the upstream search shared by concurrent callers
func WithSearchTimeout(d time.Duration) SearcherOption {
	return func(s *CachingSearcher) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Compile-time interface check
var _ literature.Searcher = (*CachingSearcher)(nil)

// NewCachingSearcher wraps next with a cache
func NewCachingSearcher(next literature.Searcher, store PublicationStore, ttl time.Duration, logger *zap.Logger, opts ...SearcherOption) *CachingSearcher {
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CachingSearcher{
		next:    next,
		store:   store,
		ttl:     ttl,
		timeout: DefaultSearchTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the cached result for the query or runs the search.
// Cache failures degrade to an uncached search; search errors are never cached.
// The upstream search runs detached from any single caller, so a caller that
// goes away only abandons its own wait.
func (s *CachingSearcher) Search(ctx context.Context, query literature.Query) (*literature.SearchResult, error) {
	key := query.CacheKey()

	cached, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Publication cache read failed", zap.String("key", key), zap.Error(err))
	}
	if cached != nil {
		cached.Term = query.Term
		return cached, nil
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		searchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		result, err := s.next.Search(searchCtx, query)
		if err != nil {
			return nil, err
		}
		if err := s.store.Set(searchCtx, key, result, s.ttl); err != nil {
			s.logger.Warn("Publication cache write failed", zap.String("key", key), zap.Error(err))
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Shared results are copied so callers never alias each other
		result := cloneResult(res.Val.(*literature.SearchResult))
		result.Term = query.Term
		return result, nil
	}
}

// Invalidate drops the cached result of a query
func (s *CachingSearcher) Invalidate(ctx context.Context, query literature.Query) error {
	return s.store.Delete(ctx, query.CacheKey())
}
