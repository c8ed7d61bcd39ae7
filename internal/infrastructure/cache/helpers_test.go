package cache

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/domain/literature"
)

func sampleResult(term string) *literature.SearchResult {
	return &literature.SearchResult{
		Term:  term,
		Count: 2,
		Publications: []literature.Publication{
			literature.NewPublication("100", "First"),
			literature.NewPublication("200", ""),
		},
		RetrievedAt: time.Date(2021, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func miniredisServer(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	return miniredis.RunT(t)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredisServer(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func miniredisPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}

// countingSearcher returns a fixed result and counts upstream calls
type countingSearcher struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (s *countingSearcher) Search(ctx context.Context, q literature.Query) (*literature.SearchResult, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return sampleResult(q.Term), nil
}
