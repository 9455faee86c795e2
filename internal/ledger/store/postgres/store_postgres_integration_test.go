//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credo-referral/internal/ledger"
	"credo-referral/internal/ledger/store/postgres"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/sentinel"
	"credo-referral/pkg/platform/tx"
	"credo-referral/pkg/testutil/containers"
)

var (
	alice = domain.MustParseAddress("0x1111111111111111111111111111111111111111")
	bob   = domain.MustParseAddress("0x2222222222222222222222222222222222222222")
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) TestInsertExistsFind() {
	ctx := context.Background()
	conn := ledger.NewConnection(alice, bob, time.Now())
	s.Require().NoError(s.store.Insert(ctx, conn))

	ok, err := s.store.Exists(ctx, alice, bob)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Exists(ctx, bob, alice)
	s.Require().NoError(err)
	s.False(ok)

	got, err := s.store.FindByPair(ctx, alice, bob)
	s.Require().NoError(err)
	s.Equal(conn.ID, got.ID)
}

func (s *PostgresStoreSuite) TestFindByPairMissing() {
	_, err := s.store.FindByPair(context.Background(), bob, alice)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentUniquePair() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for n := 0; n < goroutines; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(ctx, ledger.NewConnection(alice, bob, time.Now()))
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
}

func (s *PostgresStoreSuite) TestRolledBackInsertLeavesNoRow() {
	ctx := context.Background()
	sqlTx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Insert(tx.WithTx(ctx, sqlTx), ledger.NewConnection(alice, bob, time.Now())))
	s.Require().NoError(sqlTx.Rollback())

	ok, err := s.store.Exists(ctx, alice, bob)
	s.Require().NoError(err)
	s.False(ok)
}
