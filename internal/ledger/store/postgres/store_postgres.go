package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"credo-referral/internal/ledger"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/sentinel"
	"credo-referral/pkg/platform/tx"
)

// PostgresStore persists connections in referral_connections. Statements run
// on the transaction bound to ctx when one is present.
type PostgresStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Exists(ctx context.Context, referrer, referee domain.Address) (bool, error) {
	var exists bool
	err := tx.Execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM referral_connections WHERE referrer = $1 AND referee = $2)`,
		referrer.String(), referee.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check connection: %w", err)
	}
	return exists, nil
}

// Insert relies on the (referrer, referee) unique constraint; a skipped row
// means another writer already holds the pair.
func (s *PostgresStore) Insert(ctx context.Context, c ledger.Connection) error {
	res, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO referral_connections (id, referrer, referee, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (referrer, referee) DO NOTHING
	`, c.ID.String(), c.Referrer.String(), c.Referee.String(), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("connection %s -> %s: %w", c.Referrer, c.Referee, sentinel.ErrConflict)
	}
	return nil
}

// FindByPair is used by operators and tests to inspect a recorded connection.
func (s *PostgresStore) FindByPair(ctx context.Context, referrer, referee domain.Address) (ledger.Connection, error) {
	var (
		id, from, to string
		c            ledger.Connection
	)
	err := tx.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, referrer, referee, created_at FROM referral_connections
		WHERE referrer = $1 AND referee = $2
	`, referrer.String(), referee.String()).Scan(&id, &from, &to, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Connection{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ledger.Connection{}, fmt.Errorf("find connection: %w", err)
	}
	if c.ID, err = domain.ParseConnectionID(id); err != nil {
		return ledger.Connection{}, err
	}
	c.Referrer, c.Referee = domain.Address(from), domain.Address(to)
	return c, nil
}
