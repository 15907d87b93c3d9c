package stubs

import (
	"context"
	"sync"
)

// MockDB is an in-memory implementation of the Storage interface
type MockDB struct {
	mu      sync.RWMutex
	threads []string
	index   map[string]struct{}
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		index: make(map[string]struct{}),
	}
}

// Initialize is a no-op for the in-memory store
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// AddThread appends the id unless it is already stored
func (m *MockDB) AddThread(ctx context.Context, threadID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[threadID]; ok {
		return false, nil
	}
	m.index[threadID] = struct{}{}
	m.threads = append(m.threads, threadID)
	return true, nil
}

// RemoveThread deletes the id if present
func (m *MockDB) RemoveThread(ctx context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[threadID]; !ok {
		return nil
	}
	delete(m.index, threadID)
	for i, id := range m.threads {
		if id == threadID {
			m.threads = append(m.threads[:i], m.threads[i+1:]...)
			break
		}
	}
	return nil
}

// ListThreads returns a copy of the ids in insertion order
func (m *MockDB) ListThreads(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, len(m.threads))
	copy(ids, m.threads)
	return ids, nil
}

// Close does nothing for the mock database
func (m *MockDB) Close() error {
	return nil
}
