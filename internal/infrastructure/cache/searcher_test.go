package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/domain/literature"
)

func TestCachingSearcher_Memoizes(t *testing.T) {
	upstream := &countingSearcher{}
	store := NewTieredPublicationStore(NewInMemoryPublicationStore(time.Minute), nil)
	defer store.Close()
	searcher := NewCachingSearcher(upstream, store, time.Hour, nil)

	ctx := context.Background()
	first, err := searcher.Search(ctx, literature.DefaultQuery())
	require.NoError(t, err)
	second, err := searcher.Search(ctx, literature.DefaultQuery())
	require.NoError(t, err)

	assert.Equal(t, int32(1), upstream.calls.Load())
	assert.Equal(t, first, second)

	other, err := literature.NewQuery("mRNA", 5)
	require.NoError(t, err)
	_, err = searcher.Search(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.calls.Load())
}

func TestCachingSearcher_ErrorsAreNotCached(t *testing.T) {
	upstream := &countingSearcher{err: literature.ErrSearchUnavailable}
	store := NewTieredPublicationStore(NewInMemoryPublicationStore(time.Minute), nil)
	defer store.Close()
	searcher := NewCachingSearcher(upstream, store, time.Hour, nil)

	ctx := context.Background()
	_, err := searcher.Search(ctx, literature.DefaultQuery())
	assert.ErrorIs(t, err, literature.ErrSearchUnavailable)

	upstream.err = nil
	result, err := searcher.Search(ctx, literature.DefaultQuery())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, int32(2), upstream.calls.Load())
}

func TestCachingSearcher_ConcurrentCallsShareUpstream(t *testing.T) {
	upstream := &countingSearcher{delay: 50 * time.Millisecond}
	store := NewTieredPublicationStore(NewInMemoryPublicationStore(time.Minute), nil)
	defer store.Close()
	searcher := NewCachingSearcher(upstream, store, time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := searcher.Search(context.Background(), literature.DefaultQuery())
			assert.NoError(t, err)
			assert.Len(t, result.Publications, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), upstream.calls.Load())
}

// failingStore always errors, so every search goes upstream
type failingStore struct{}

func (failingStore) Get(context.Context, string) (*literature.SearchResult, error) {
	return nil, errors.New("down")
}
func (failingStore) Set(context.Context, string, *literature.SearchResult, time.Duration) error {
	return errors.New("down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("down") }
func (failingStore) Close() error                         { return nil }

func TestCachingSearcher_StoreFailureDegrades(t *testing.T) {
	upstream := &countingSearcher{}
	searcher := NewCachingSearcher(upstream, failingStore{}, 0, nil)

	result, err := searcher.Search(context.Background(), literature.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, literature.DefaultTerm, result.Term)
	assert.Error(t, searcher.Invalidate(context.Background(), literature.DefaultQuery()))
}

func TestCachingSearcher_Invalidate(t *testing.T) {
	upstream := &countingSearcher{}
	store := NewTieredPublicationStore(NewInMemoryPublicationStore(time.Minute), nil)
	defer store.Close()
	searcher := NewCachingSearcher(upstream, store, time.Hour, nil)

	ctx := context.Background()
	_, err := searcher.Search(ctx, literature.DefaultQuery())
	require.NoError(t, err)
	require.NoError(t, searcher.Invalidate(ctx, literature.DefaultQuery()))
	_, err = searcher.Search(ctx, literature.DefaultQuery())
	require.NoError(t, err)

	assert.Equal(t, int32(2), upstream.calls.Load())
}

// gatedSearcher blocks until released or until its context ends
type gatedSearcher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
	ctxErr  atomic.Value
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{started: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedSearcher) Search(ctx context.Context, q literature.Query) (*literature.SearchResult, error) {
	s.calls.Add(1)
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		s.ctxErr.Store(fmt.Sprint(ctx.Err()))
		return sampleResult(q.Term), nil
	case <-ctx.Done():
		s.ctxErr.Store(fmt.Sprint(ctx.Err()))
		return nil, ctx.Err()
	}
}

func TestCachingSearcher_CancelledCallerDoesNotFailOthers(t *testing.T) {
	upstream := newGatedSearcher()
	store := NewTieredPublicationStore(NewInMemoryPublicationStore(time.Minute), nil)
	defer store.Close()
	searcher := NewCachingSearcher(upstream, store, time.Hour, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := searcher.Search(ctxA, literature.DefaultQuery())
		errA <- err
	}()
	<-upstream.started

	type outcome struct {
		result *literature.SearchResult
		err    error
	}
	doneB := make(chan outcome, 1)
	go func() {
		result, err := searcher.Search(context.Background(), literature.DefaultQuery())
		doneB <- outcome{result, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(upstream.release)
	b := <-doneB
	require.NoError(t, b.err)
	assert.Len(t, b.result.Publications, 2)
	assert.Equal(t, int32(1), upstream.calls.Load())
	assert.Equal(t, "<nil>", upstream.ctxErr.Load())
}

func TestCachingSearcher_SearchTimeout(t *testing.T) {
	upstream := newGatedSearcher()
	searcher := NewCachingSearcher(upstream, failingStore{}, time.Hour, nil,
		WithSearchTimeout(20*time.Millisecond))

	_, err := searcher.Search(context.Background(), literature.DefaultQuery())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCachingSearcher_KeepsCallerTerm(t *testing.T) {
	upstream := &countingSearcher{}
	store := NewTieredPublicationStore(NewInMemoryPublicationStore(time.Minute), nil)
	defer store.Close()
	searcher := NewCachingSearcher(upstream, store, time.Hour, nil)

	ctx := context.Background()
	first, err := searcher.Search(ctx, literature.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, "COVID-19 vaccines", first.Term)

	shouted, err := literature.NewQuery("covid-19 VACCINES", literature.DefaultMaxCount)
	require.NoError(t, err)
	second, err := searcher.Search(ctx, shouted)
	require.NoError(t, err)

	assert.Equal(t, int32(1), upstream.calls.Load())
	assert.Equal(t, "covid-19 VACCINES", second.Term)
	assert.Equal(t, first.Publications, second.Publications)
}
