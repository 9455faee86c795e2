package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"credo-referral/internal/claims"
	"credo-referral/internal/platform/postgres"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/sentinel"
	"credo-referral/pkg/platform/tx"
)

// PostgresStore persists claims in referral_claims, joining the transaction
// in ctx so the pair commits with its ledger row.
type PostgresStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertClaim = `
	INSERT INTO referral_claims (id, connection_id, issuer_did, subject, counterpart, issued_at, signature, token)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (s *PostgresStore) SavePair(ctx context.Context, pair claims.Pair) error {
	exec := tx.Execer(ctx, s.db)
	for _, c := range []claims.Claim{pair.ForReferee, pair.ForReferrer} {
		_, err := exec.ExecContext(ctx, insertClaim,
			c.ID.String(),
			c.ConnectionID.String(),
			c.IssuerDID,
			c.Subject.String(),
			c.Payload.Counterpart.String(),
			c.IssuedAt,
			c.Signature,
			c.Token,
		)
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("claim %s: %w", c.ID, sentinel.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subject claims.SubjectAddress) ([]claims.Claim, error) {
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, `
		SELECT id, connection_id, issuer_did, subject, counterpart, issued_at, signature, token
		FROM referral_claims
		WHERE subject = $1
		ORDER BY issued_at, id
	`, subject.String())
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var out []claims.Claim
	for rows.Next() {
		var (
			c                          claims.Claim
			id, connID, subj, counterp string
		)
		if err := rows.Scan(&id, &connID, &c.IssuerDID, &subj, &counterp, &c.IssuedAt, &c.Signature, &c.Token); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		if c.ID, err = domain.ParseClaimID(id); err != nil {
			return nil, err
		}
		if c.ConnectionID, err = domain.ParseConnectionID(connID); err != nil {
			return nil, err
		}
		c.Subject = claims.SubjectAddress(subj)
		c.Payload.Counterpart = claims.CounterpartAddress(counterp)
		c.IssuedAt = c.IssuedAt.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return out, nil
}
