package repositories

import "sync"

// MockKVStore is an in-memory implementation of KVStore.
type MockKVStore struct {
	records map[string][]byte
	mu      sync.RWMutex
}

// NewMockKVStore creates a new instance of MockKVStore.
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{
		records: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key.
func (s *MockKVStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.records[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *MockKVStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (s *MockKVStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}
