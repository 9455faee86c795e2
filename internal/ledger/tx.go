package ledger

import (
	"context"
	"errors"
	"sync"

	"credo-referral/pkg/domain"
)

// TxRunner runs fn as one logical transaction over the ledger. Stores that
// take ctx (the claim store, for instance) join the same transaction through
// the ctx passed to fn. An error from fn undoes every insert made through store.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// DeletableStore is a Store that can undo an insert.
type DeletableStore interface {
	Store
	Delete(ctx context.Context, referrer, referee domain.Address) error
}

// CompensatingRunner gives stores without native transactions (memory, Redis)
// all-or-nothing behaviour by deleting recorded inserts when fn fails. The
// store's own Insert still provides the atomic uniqueness guarantee.
type CompensatingRunner struct {
	store DeletableStore
}

func NewCompensatingRunner(store DeletableStore) *CompensatingRunner {
	return &CompensatingRunner{store: store}
}

func (r *CompensatingRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	j := &journal{Store: r.store}
	err := fn(ctx, j)
	if err == nil {
		return nil
	}
	// Compensation must run even when ctx was cancelled mid-transaction.
	undoCtx := context.WithoutCancel(ctx)
	var undoErrs []error
	for _, c := range j.inserted() {
		if delErr := r.store.Delete(undoCtx, c.Referrer, c.Referee); delErr != nil {
			undoErrs = append(undoErrs, delErr)
		}
	}
	return errors.Join(append([]error{err}, undoErrs...)...)
}

type journal struct {
	Store
	mu   sync.Mutex
	done []Connection
}

func (j *journal) Insert(ctx context.Context, c Connection) error {
	if err := j.Store.Insert(ctx, c); err != nil {
		return err
	}
	j.mu.Lock()
	j.done = append(j.done, c)
	j.mu.Unlock()
	return nil
}

func (j *journal) inserted() []Connection {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Connection(nil), j.done...)
}
