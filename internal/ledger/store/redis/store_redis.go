package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"credo-referral/internal/ledger"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/sentinel"
)

const connectionKeyPrefix = "referral:connection:"

// RedisStore records connections with SETNX, which gives the atomic
// check-and-insert across service instances.
type RedisStore struct {
	client *redis.Client
}

func New(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type record struct {
	ID        string    `json:"id"`
	Referrer  string    `json:"referrer"`
	Referee   string    `json:"referee"`
	CreatedAt time.Time `json:"created_at"`
}

func key(referrer, referee domain.Address) string {
	return connectionKeyPrefix + referrer.String() + ":" + referee.String()
}

func (s *RedisStore) Exists(ctx context.Context, referrer, referee domain.Address) (bool, error) {
	n, err := s.client.Exists(ctx, key(referrer, referee)).Result()
	if err != nil {
		return false, fmt.Errorf("check connection: %w: %w", sentinel.ErrUnavailable, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Insert(ctx context.Context, c ledger.Connection) error {
	payload, err := json.Marshal(record{
		ID:        c.ID.String(),
		Referrer:  c.Referrer.String(),
		Referee:   c.Referee.String(),
		CreatedAt: c.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode connection: %w", err)
	}
	ok, err := s.client.SetNX(ctx, key(c.Referrer, c.Referee), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("insert connection: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("connection %s -> %s: %w", c.Referrer, c.Referee, sentinel.ErrConflict)
	}
	return nil
}

// Delete removes a pair. Redis has no transaction spanning the claim store,
// so the runner uses this to compensate a failed claim write.
func (s *RedisStore) Delete(ctx context.Context, referrer, referee domain.Address) error {
	return s.client.Del(ctx, key(referrer, referee)).Err()
}

func (s *RedisStore) Get(ctx context.Context, referrer, referee domain.Address) (ledger.Connection, error) {
	raw, err := s.client.Get(ctx, key(referrer, referee)).Bytes()
	if err == redis.Nil {
		return ledger.Connection{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ledger.Connection{}, fmt.Errorf("get connection: %w: %w", sentinel.ErrUnavailable, err)
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return ledger.Connection{}, fmt.Errorf("decode connection: %w", err)
	}
	id, err := domain.ParseConnectionID(r.ID)
	if err != nil {
		return ledger.Connection{}, err
	}
	return ledger.Connection{
		ID:        id,
		Referrer:  domain.Address(r.Referrer),
		Referee:   domain.Address(r.Referee),
		CreatedAt: r.CreatedAt,
	}, nil
}
