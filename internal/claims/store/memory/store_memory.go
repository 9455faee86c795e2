package memory

import (
	"context"
	"fmt"
	"sync"

	"credo-referral/internal/claims"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/sentinel"
)

// InMemoryStore keeps issued claims for development and tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	claims    map[domain.ClaimID]claims.Claim
	bySubject map[claims.SubjectAddress][]domain.ClaimID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		claims:    make(map[domain.ClaimID]claims.Claim),
		bySubject: make(map[claims.SubjectAddress][]domain.ClaimID),
	}
}

func (s *InMemoryStore) SavePair(_ context.Context, pair claims.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range []claims.Claim{pair.ForReferee, pair.ForReferrer} {
		if _, ok := s.claims[c.ID]; ok {
			return fmt.Errorf("claim %s: %w", c.ID, sentinel.ErrConflict)
		}
	}
	for _, c := range []claims.Claim{pair.ForReferee, pair.ForReferrer} {
		s.claims[c.ID] = c
		s.bySubject[c.Subject] = append(s.bySubject[c.Subject], c.ID)
	}
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subject claims.SubjectAddress) ([]claims.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySubject[subject]
	out := make([]claims.Claim, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.claims[id])
	}
	return out, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}
