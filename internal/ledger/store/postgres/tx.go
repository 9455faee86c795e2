package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"credo-referral/internal/ledger"
	dErrors "credo-referral/pkg/domain-errors"
	"credo-referral/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner wraps fn in a database transaction bound to ctx, so the ledger
// insert and any ctx-aware store writes commit or roll back together.
type TxRunner struct {
	db      *sql.DB
	store   *PostgresStore
	timeout time.Duration
}

func NewTxRunner(db *sql.DB, store *PostgresStore) *TxRunner {
	return &TxRunner{db: db, store: store}
}

func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, store ledger.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx), t.store); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
