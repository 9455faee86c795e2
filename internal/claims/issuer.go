package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"credo-referral/internal/ledger"
	"credo-referral/internal/trustroot"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/requestcontext"
)

// Signer is the slice of the trust root the issuer needs.
type Signer interface {
	DID() string
	Sign(ctx context.Context, claims jwt.Claims, issuerDID string) (string, []byte, error)
}

// Store persists issued pairs. It must honour the transaction carried in ctx.
type Store interface {
	SavePair(ctx context.Context, pair Pair) error
	ListBySubject(ctx context.Context, subject SubjectAddress) ([]Claim, error)
}

// Issuer signs claim pairs and records the connection.
type Issuer struct {
	signer Signer
	tx     ledger.TxRunner
	store  Store
}

func NewIssuer(signer Signer, tx ledger.TxRunner, store Store) *Issuer {
	return &Issuer{signer: signer, tx: tx, store: store}
}

// Issue signs both claims, then inserts the connection and stores the pair in
// one transaction. A signing failure returns before the ledger is touched. A
// ledger conflict returns an error wrapping sentinel.ErrConflict.
func (i *Issuer) Issue(ctx context.Context, referrer, referee domain.Address) (Pair, error) {
	ctx, span := otel.Tracer("credo-referral/claims").Start(ctx, "claims.issue")
	defer span.End()
	span.SetAttributes(
		attribute.String("referral.referrer", referrer.String()),
		attribute.String("referral.referee", referee.String()),
	)

	now := requestcontext.Now(ctx).UTC().Truncate(time.Second)
	conn := ledger.NewConnection(referrer, referee, now)
	issuer := i.signer.DID()

	forReferee, err := i.sign(ctx, newDraft(conn.ID, issuer, SubjectAddress(referee), CounterpartAddress(referrer), now))
	if err != nil {
		span.SetStatus(codes.Error, "sign referee claim")
		return Pair{}, err
	}
	forReferrer, err := i.sign(ctx, newDraft(conn.ID, issuer, SubjectAddress(referrer), CounterpartAddress(referee), now))
	if err != nil {
		span.SetStatus(codes.Error, "sign referrer claim")
		return Pair{}, err
	}

	pair := Pair{ConnectionID: conn.ID, ForReferee: forReferee, ForReferrer: forReferrer}
	err = i.tx.RunInTx(ctx, func(ctx context.Context, l ledger.Store) error {
		if err := l.Insert(ctx, conn); err != nil {
			return err
		}
		return i.store.SavePair(ctx, pair)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record connection")
		return Pair{}, fmt.Errorf("record connection: %w", err)
	}
	return pair, nil
}

func (i *Issuer) sign(ctx context.Context, c Claim) (Claim, error) {
	token, sig, err := i.signer.Sign(ctx, c.tokenClaims(), c.IssuerDID)
	if err != nil {
		if !errors.Is(err, trustroot.ErrSigning) {
			err = fmt.Errorf("%w: %w", trustroot.ErrSigning, err)
		}
		return Claim{}, err
	}
	c.Token = token
	c.Signature = sig
	return c, nil
}
