//go:build integration

package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credo-referral/internal/ledger"
	"credo-referral/pkg/platform/sentinel"
	"credo-referral/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = New(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestConcurrentInsertSingleWinner() {
	ctx := context.Background()
	const workers = 16

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.store.Insert(ctx, ledger.NewConnection(alice, bob, time.Now()))
		}()
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, sentinel.ErrConflict)
	}
	s.Equal(1, wins)
}

func (s *RedisStoreSuite) TestCompensatingRunnerUndoesOnFailure() {
	ctx := context.Background()
	runner := ledger.NewCompensatingRunner(s.store)

	err := runner.RunInTx(ctx, func(ctx context.Context, store ledger.Store) error {
		require.NoError(s.T(), store.Insert(ctx, ledger.NewConnection(alice, bob, time.Now())))
		return sentinel.ErrUnavailable
	})
	s.ErrorIs(err, sentinel.ErrUnavailable)

	ok, err := s.store.Exists(ctx, alice, bob)
	s.Require().NoError(err)
	s.False(ok)
}
