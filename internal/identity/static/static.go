// Package static serves profiles from memory, optionally seeded from a JSON
// fixture file. Used in development and tests.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"credo-referral/internal/identity"
	"credo-referral/pkg/domain"
)

type Resolver struct {
	mu       sync.RWMutex
	profiles map[domain.Address]identity.DIDProfile
	failures map[domain.Address]error
}

func New(profiles ...identity.DIDProfile) *Resolver {
	r := &Resolver{
		profiles: make(map[domain.Address]identity.DIDProfile),
		failures: make(map[domain.Address]error),
	}
	for _, p := range profiles {
		r.profiles[p.Address] = p
	}
	return r
}

type fixture struct {
	Address          string                     `json:"address"`
	DID              string                     `json:"did"`
	VerifiedAccounts []identity.VerifiedAccount `json:"verified_accounts"`
}

// LoadFile reads a JSON array of profiles:
//
//	[{"address": "0x...", "did": "did:3:...", "verified_accounts": [{"service": "github", "username": "alice"}]}]
func LoadFile(path string) (*Resolver, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []fixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	r := New()
	for i, f := range fixtures {
		addr, err := domain.ParseAddress(f.Address)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		p, err := identity.NewProfile(f.DID, addr, f.VerifiedAccounts)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		r.Put(p)
	}
	return r, nil
}

func (r *Resolver) Put(p identity.DIDProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Address] = p
}

// FailWith makes lookups for address return err until cleared with a nil err.
func (r *Resolver) FailWith(address domain.Address, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, address)
		return
	}
	r.failures[address] = err
}

func (r *Resolver) ResolveProfile(ctx context.Context, address domain.Address) (identity.DIDProfile, error) {
	if err := ctx.Err(); err != nil {
		return identity.DIDProfile{}, fmt.Errorf("%w: %w", identity.ErrResolverUnavailable, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err, ok := r.failures[address]; ok {
		return identity.DIDProfile{}, err
	}
	p, ok := r.profiles[address]
	if !ok {
		return identity.DIDProfile{}, fmt.Errorf("%s: %w", address, identity.ErrProfileNotFound)
	}
	return p, nil
}
