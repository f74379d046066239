package cache

import (
	"context"
	"sync"
	"time"
)

// MockContextCache is a mock implementation of ContextCache for testing.
type MockContextCache struct {
	mu    sync.RWMutex
	store map[string]*mockEntry
}

type mockEntry struct {
	value     any
	expiresAt time.Time
}

// NewMockContextCache creates a new MockContextCache.
func NewMockContextCache() *MockContextCache {
	return &MockContextCache{
		store: make(map[string]*mockEntry),
	}
}

// Get retrieves a value from cache.
func (m *MockContextCache) Get(_ context.Context, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.store[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value in cache.
func (m *MockContextCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &mockEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.store[key] = e
	return nil
}

// Invalidate removes the entry with the exact key.
func (m *MockContextCache) Invalidate(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, pattern)
	return nil
}

// Len returns the number of stored entries.
func (m *MockContextCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

var _ ContextCache = (*MockContextCache)(nil)
