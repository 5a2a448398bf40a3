package settings

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	updatedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{value: value, updatedAt: s.now()}
	return nil
}

// UpdatedAt returns when key was last written.
func (s *MemoryStore) UpdatedAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	return e.updatedAt, ok
}

func (s *MemoryStore) Close() error {
	return nil
}
