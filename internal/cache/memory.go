package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store guarded by a RWMutex. Expired entries
// are dropped lazily on read.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Entry
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]Entry)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if e.Expired(time.Now()) {
		s.mu.Lock()
		delete(s.m, key)
		s.mu.Unlock()
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, e Entry) error {
	s.mu.Lock()
	s.m[key] = e
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.m = make(map[string]Entry)
	s.mu.Unlock()
	return nil
}

// Len implements Store. Expired-but-unread entries still count; they vanish
// on their next read.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m), nil
}
