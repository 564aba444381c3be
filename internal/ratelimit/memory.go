package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryStore keeps rate windows in process memory. Windows are overwritten
// in place on rollover; key cardinality is bounded by distinct clients per
// route, so no background eviction runs.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

// Admit implements Store with a check-then-increment fixed window, so an
// admitted count never exceeds the ceiling.
func (s *MemoryStore) Admit(_ context.Context, key string, p Policy, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= p.Window {
		w = &window{start: now}
		s.windows[key] = w
	}
	if w.count >= p.Max {
		return Decision{Allowed: false, RetryAfter: p.Window - now.Sub(w.start)}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: p.Max - w.count}, nil
}

// Len reports the number of live windows; used by admin stats.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
