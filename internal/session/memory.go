package session

import (
	"context"
	"sync"
)

type memoryKey struct {
	key   Key
	field string
}

// MemoryStore is an in-process Store for tests and single-node setups.
type MemoryStore struct {
	mu     sync.Mutex
	values map[memoryKey]string
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[memoryKey]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key Key, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[memoryKey{key, field}]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[memoryKey{key, field}] = value
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, key Key, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mk := memoryKey{key, field}
	value, ok := s.values[mk]
	if ok {
		delete(s.values, mk)
	}
	return value, ok, nil
}

func (s *MemoryStore) Clear(_ context.Context, key Key, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(fields) == 0 {
		fields = allFields
	}
	for _, field := range fields {
		delete(s.values, memoryKey{key, field})
	}
	return nil
}
