package memory

import (
	"context"
	"sync"

	audit "credo-referral/pkg/platform/audit"
)

// InMemoryStore keeps events in process, for development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByAddress returns events where addr is the referrer or the referee.
func (s *InMemoryStore) ListByAddress(_ context.Context, addr string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Referrer == addr || e.Referee == addr {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns a copy of every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}
