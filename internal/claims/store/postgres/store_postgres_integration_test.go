//go:build integration

package postgres_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"credo-referral/internal/claims"
	claimstore "credo-referral/internal/claims/store/postgres"
	ledgerstore "credo-referral/internal/ledger/store/postgres"
	"credo-referral/internal/trustroot"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/sentinel"
	"credo-referral/pkg/testutil/containers"
)

var (
	referrer = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	referee  = domain.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

type IssuanceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	ledger   *ledgerstore.PostgresStore
	store    *claimstore.PostgresStore
	issuer   *claims.Issuer
}

func TestIssuanceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(IssuanceSuite))
}

func (s *IssuanceSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	root, err := trustroot.New(bytes.Repeat([]byte{0x33}, 32))
	s.Require().NoError(err)

	s.ledger = ledgerstore.New(s.postgres.DB)
	s.store = claimstore.New(s.postgres.DB)
	s.issuer = claims.NewIssuer(root, ledgerstore.NewTxRunner(s.postgres.DB, s.ledger), s.store)
}

func (s *IssuanceSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *IssuanceSuite) TestIssuePersistsPairWithConnection() {
	ctx := context.Background()
	pair, err := s.issuer.Issue(ctx, referrer, referee)
	s.Require().NoError(err)

	conn, err := s.ledger.FindByPair(ctx, referrer, referee)
	s.Require().NoError(err)
	s.Equal(pair.ConnectionID, conn.ID)

	stored, err := s.store.ListBySubject(ctx, claims.SubjectAddress(referrer))
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal(pair.ForReferrer.Token, stored[0].Token)
	s.Equal(claims.CounterpartAddress(referee), stored[0].Payload.Counterpart)
}

func (s *IssuanceSuite) TestConcurrentIssueSingleWinner() {
	ctx := context.Background()
	const goroutines = 10

	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for n := 0; n < goroutines; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.issuer.Issue(ctx, referrer, referee)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	stored, err := s.store.ListBySubject(ctx, claims.SubjectAddress(referee))
	s.Require().NoError(err)
	s.Len(stored, 1, "losers leave no claims behind")
}
