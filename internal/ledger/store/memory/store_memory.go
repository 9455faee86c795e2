package memory

import (
	"context"
	"fmt"
	"sync"

	"credo-referral/internal/ledger"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/sentinel"
)

type pair struct {
	referrer domain.Address
	referee  domain.Address
}

// InMemoryStore keeps connections in a map guarded by a mutex.
type InMemoryStore struct {
	mu          sync.RWMutex
	connections map[pair]ledger.Connection
}

func New() *InMemoryStore {
	return &InMemoryStore{connections: make(map[pair]ledger.Connection)}
}

func (s *InMemoryStore) Exists(_ context.Context, referrer, referee domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.connections[pair{referrer, referee}]
	return ok, nil
}

func (s *InMemoryStore) Insert(_ context.Context, c ledger.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{c.Referrer, c.Referee}
	if _, ok := s.connections[key]; ok {
		return fmt.Errorf("connection %s -> %s: %w", c.Referrer, c.Referee, sentinel.ErrConflict)
	}
	s.connections[key] = c
	return nil
}

// Delete removes a connection. Used to undo an insert when a later step in
// the same logical transaction fails.
func (s *InMemoryStore) Delete(_ context.Context, referrer, referee domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, pair{referrer, referee})
	return nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
