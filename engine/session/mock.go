package session

import (
	"context"
	"sync"

	"github.com/solacehq/solace/store"
)

// MockPreferenceReader is a mock PreferenceReader for testing.
type MockPreferenceReader struct {
	mu    sync.Mutex
	Prefs map[string]any
	Err   error
	Calls int
}

// GetPreferences returns the configured preferences or error.
func (m *MockPreferenceReader) GetPreferences(_ context.Context, _ string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Prefs, nil
}

// CallCount returns how many reads were issued.
func (m *MockPreferenceReader) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockMemoryReader is a mock MemoryReader for testing.
type MockMemoryReader struct {
	mu          sync.Mutex
	Recent      []*store.MemoryRecord
	Found       []*store.MemoryRecord
	Err         error
	ListCalls   int
	SearchCalls int
	LastSearch  []string
}

// ListRecentMemories returns the configured recent records or error.
func (m *MockMemoryReader) ListRecentMemories(_ context.Context, _ string, limit int) ([]*store.MemoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && limit < len(m.Recent) {
		return m.Recent[:limit], nil
	}
	return m.Recent, nil
}

// SearchMemories returns the configured search results or error.
func (m *MockMemoryReader) SearchMemories(_ context.Context, _ string, keywords []string, _ int) ([]*store.MemoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	m.LastSearch = keywords
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Found, nil
}

// ReadCount returns how many reads were issued in total.
func (m *MockMemoryReader) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ListCalls + m.SearchCalls
}

var (
	_ PreferenceReader = (*MockPreferenceReader)(nil)
	_ MemoryReader     = (*MockMemoryReader)(nil)
)
