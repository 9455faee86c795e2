package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ClaimID identifies one signed claim.
type ClaimID uuid.UUID

// ConnectionID identifies one recorded referral connection.
type ConnectionID uuid.UUID

func NewClaimID() ClaimID {
	return ClaimID(uuid.New())
}

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New())
}

func (id ClaimID) String() string {
	return uuid.UUID(id).String()
}

func (id ClaimID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ConnectionID) String() string {
	return uuid.UUID(id).String()
}

func (id ConnectionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// ParseClaimID parses a non-nil UUID string.
func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ClaimID{}, fmt.Errorf("claim id: %w", err)
	}
	return ClaimID(u), nil
}

// ParseConnectionID parses a non-nil UUID string.
func ParseConnectionID(s string) (ConnectionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ConnectionID{}, fmt.Errorf("connection id: %w", err)
	}
	return ConnectionID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("empty id")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id format: %w", err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("nil id")
	}
	return u, nil
}
