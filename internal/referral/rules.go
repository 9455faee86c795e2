package referral

import (
	"context"
	"fmt"

	"credo-referral/internal/identity"
	"credo-referral/pkg/domain"
)

// Candidate is a proposed connection. Profiles are zero until resolved.
type Candidate struct {
	Referrer        domain.Address
	Referee         domain.Address
	ReferrerProfile identity.DIDProfile
	RefereeProfile  identity.DIDProfile
}

// Verdict is the outcome of running the rules. Rule names the rule that
// rejected the candidate.
type Verdict struct {
	Admissible bool
	Reason     Reason
	Rule       string
}

// Rule is one admissibility check. Check returns a non-empty Reason to reject
// and an error only when it could not decide.
type Rule struct {
	Name          string
	NeedsProfiles bool
	Check         func(ctx context.Context, c Candidate) (Reason, error)
}

// LedgerChecker is the read side of the connection ledger.
type LedgerChecker interface {
	Exists(ctx context.Context, referrer, referee domain.Address) (bool, error)
}

// DefaultRules returns the referral rules in evaluation order. New checks
// (account age, for instance) are added by appending to this list.
func DefaultRules(ledger LedgerChecker) []Rule {
	return []Rule{
		{Name: "distinct_addresses", Check: distinctAddresses},
		{Name: "github_verified", NeedsProfiles: true, Check: githubVerified},
		{Name: "distinct_github_accounts", NeedsProfiles: true, Check: distinctGitHubAccounts},
		{Name: "new_connection", Check: newConnection(ledger)},
	}
}

func distinctAddresses(_ context.Context, c Candidate) (Reason, error) {
	if c.Referrer == c.Referee {
		return ReasonSelfReferral, nil
	}
	return "", nil
}

func githubVerified(_ context.Context, c Candidate) (Reason, error) {
	if _, ok := c.ReferrerProfile.GitHubUsername(); !ok {
		return ReasonUnverifiedIdentity, nil
	}
	if _, ok := c.RefereeProfile.GitHubUsername(); !ok {
		return ReasonUnverifiedIdentity, nil
	}
	return "", nil
}

func distinctGitHubAccounts(_ context.Context, c Candidate) (Reason, error) {
	a, _ := c.ReferrerProfile.GitHubUsername()
	b, _ := c.RefereeProfile.GitHubUsername()
	if a == b {
		return ReasonSelfReferral, nil
	}
	return "", nil
}

// newConnection is advisory: it rejects known duplicates before signing, but
// the ledger insert at issuance is what guarantees uniqueness.
func newConnection(ledger LedgerChecker) func(context.Context, Candidate) (Reason, error) {
	return func(ctx context.Context, c Candidate) (Reason, error) {
		exists, err := ledger.Exists(ctx, c.Referrer, c.Referee)
		if err != nil {
			return "", fmt.Errorf("check ledger: %w", err)
		}
		if exists {
			return ReasonDuplicateConnection, nil
		}
		return "", nil
	}
}

// Validator evaluates rules in order and stops at the first rejection.
type Validator struct {
	rules []Rule
}

func NewValidator(rules []Rule) *Validator {
	return &Validator{rules: rules}
}

// Screen runs the leading rules that need no profiles, so obviously invalid
// candidates are rejected before any identity lookup.
func (v *Validator) Screen(ctx context.Context, referrer, referee domain.Address) (Verdict, error) {
	c := Candidate{Referrer: referrer, Referee: referee}
	for _, r := range v.rules {
		if r.NeedsProfiles {
			break
		}
		if verdict, err := apply(ctx, r, c); err != nil || !verdict.Admissible {
			return verdict, err
		}
	}
	return Verdict{Admissible: true}, nil
}

// Validate runs every rule against a fully resolved candidate.
func (v *Validator) Validate(ctx context.Context, c Candidate) (Verdict, error) {
	for _, r := range v.rules {
		if verdict, err := apply(ctx, r, c); err != nil || !verdict.Admissible {
			return verdict, err
		}
	}
	return Verdict{Admissible: true}, nil
}

func apply(ctx context.Context, r Rule, c Candidate) (Verdict, error) {
	reason, err := r.Check(ctx, c)
	if err != nil {
		return Verdict{Rule: r.Name}, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	if reason != "" {
		return Verdict{Reason: reason, Rule: r.Name}, nil
	}
	return Verdict{Admissible: true}, nil
}
