// Package identity resolves chain addresses to DID profiles and the social
// accounts verified for them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"credo-referral/pkg/domain"
)

// ServiceGitHub is the only account service the referral rules consume.
const ServiceGitHub = "github"

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrResolverUnavailable = errors.New("identity resolver unavailable")
	// ErrMalformedProfile is returned when resolver output fails boundary validation.
	// Callers treat it as a resolver failure.
	ErrMalformedProfile = errors.New("malformed profile")
)

// Resolver maps an address to its profile. One attempt per call; no retries.
type Resolver interface {
	ResolveProfile(ctx context.Context, address domain.Address) (DIDProfile, error)
}

// VerifiedAccount is a social account whose ownership proof the resolver has
// already checked.
type VerifiedAccount struct {
	Service  string `json:"service"`
	Username string `json:"username"`
}

// DIDProfile is the resolved identity behind an address.
type DIDProfile struct {
	DID              string            `json:"did"`
	Address          domain.Address    `json:"address"`
	VerifiedAccounts []VerifiedAccount `json:"verified_accounts"`
}

// NewProfile validates raw resolver output. Services are lowercased, accounts
// with an empty username are rejected, and duplicates collapse so the
// accounts behave as a set.
func NewProfile(did string, address domain.Address, accounts []VerifiedAccount) (DIDProfile, error) {
	did = strings.TrimSpace(did)
	if !strings.HasPrefix(did, "did:") {
		return DIDProfile{}, fmt.Errorf("%w: did %q", ErrMalformedProfile, did)
	}
	if address.IsNil() {
		return DIDProfile{}, fmt.Errorf("%w: missing address", ErrMalformedProfile)
	}
	seen := make(map[VerifiedAccount]struct{}, len(accounts))
	out := make([]VerifiedAccount, 0, len(accounts))
	for _, a := range accounts {
		acct := VerifiedAccount{
			Service:  strings.ToLower(strings.TrimSpace(a.Service)),
			Username: strings.TrimSpace(a.Username),
		}
		if acct.Service == "" || acct.Username == "" {
			return DIDProfile{}, fmt.Errorf("%w: account with empty service or username", ErrMalformedProfile)
		}
		if _, dup := seen[acct]; dup {
			continue
		}
		seen[acct] = struct{}{}
		out = append(out, acct)
	}
	return DIDProfile{DID: did, Address: address, VerifiedAccounts: out}, nil
}

// GitHubUsername returns the first verified GitHub username. GitHub
// usernames are case-insensitive, so the result is lowercased.
func (p DIDProfile) GitHubUsername() (string, bool) {
	for _, a := range p.VerifiedAccounts {
		if a.Service == ServiceGitHub {
			return strings.ToLower(a.Username), true
		}
	}
	return "", false
}
