// Package ledger records issued referral connections. The ordered pair
// (referrer, referee) is the unit of dedup: (A,B) and (B,A) are distinct.
package ledger

import (
	"context"
	"time"

	"credo-referral/pkg/domain"
)

// Connection is one issued referral.
type Connection struct {
	ID        domain.ConnectionID
	Referrer  domain.Address
	Referee   domain.Address
	CreatedAt time.Time
}

func NewConnection(referrer, referee domain.Address, now time.Time) Connection {
	return Connection{
		ID:        domain.NewConnectionID(),
		Referrer:  referrer,
		Referee:   referee,
		CreatedAt: now.UTC(),
	}
}

// Store is the check-and-insert contract every backend honours.
// Insert must fail with sentinel.ErrConflict when the ordered pair already
// exists, atomically with respect to concurrent inserts.
type Store interface {
	Exists(ctx context.Context, referrer, referee domain.Address) (bool, error)
	Insert(ctx context.Context, c Connection) error
}
