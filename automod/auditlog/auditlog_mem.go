package auditlog

import (
	"context"
	"sync"
)

type MemStore struct {
	MaxEvents int

	mu     sync.Mutex
	events map[string][]Event
}

func NewMemStore() *MemStore {
	return &MemStore{
		MaxEvents: DefaultMaxEvents,
		events:    make(map[string][]Event),
	}
}

func (s *MemStore) Append(ctx context.Context, tenantID string, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[tenantID] = evict(append(s.events[tenantID], ev), s.MaxEvents)
	return nil
}

func (s *MemStore) Tail(ctx context.Context, tenantID string, n int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.events[tenantID], n), nil
}
