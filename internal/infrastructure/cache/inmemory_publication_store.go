package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vaxdash/backend/internal/domain/literature"
)

// entry is a cached result with its expiration
type entry struct {
	result    *literature.SearchResult
	expiresAt time.Time
}

// InMemoryPublicationStore implements PublicationStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryPublicationStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryPublicationStore creates a new in-memory store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryPublicationStore(cleanupInterval time.Duration) *InMemoryPublicationStore {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultConfig().CleanupInterval
	}
	store := &InMemoryPublicationStore{
		entries:  make(map[string]entry),
		interval: cleanupInterval,
		stopChan: make(chan struct{}),
	}

	// Start cleanup goroutine
	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Get returns a copy of the cached result, or nil when absent or expired
func (s *InMemoryPublicationStore) Get(ctx context.Context, key string) (*literature.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	return cloneResult(e.result), nil
}

// Set stores a copy of the result with a TTL
func (s *InMemoryPublicationStore) Set(ctx context.Context, key string, result *literature.SearchResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		result:    cloneResult(result),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes an entry
func (s *InMemoryPublicationStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryPublicationStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryPublicationStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryPublicationStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryPublicationStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryPublicationStore implements PublicationStore
var _ PublicationStore = (*InMemoryPublicationStore)(nil)
