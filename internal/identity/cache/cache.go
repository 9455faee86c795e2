// Package cache adds a Redis read-through cache in front of any identity.Resolver.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"credo-referral/internal/identity"
	"credo-referral/internal/platform/metrics"
	"credo-referral/pkg/domain"
)

const profileKeyPrefix = "referral:profile:"

// Resolver caches successful lookups for ttl. Misses and errors from the
// wrapped resolver are never cached. A Redis failure degrades to a direct
// lookup.
type Resolver struct {
	next    identity.Resolver
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(next identity.Resolver, client *redis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{next: next, client: client, ttl: ttl, logger: logger, metrics: m}
}

func (r *Resolver) ResolveProfile(ctx context.Context, address domain.Address) (identity.DIDProfile, error) {
	key := profileKeyPrefix + address.String()

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p identity.DIDProfile
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			r.count("hit")
			return p, nil
		}
		r.logger.WarnContext(ctx, "discarding undecodable cached profile", "address", address.String())
		r.count("error")
	case errors.Is(err, redis.Nil):
		r.count("miss")
	default:
		r.logger.WarnContext(ctx, "profile cache read failed", "error", err)
		r.count("error")
	}

	p, err := r.next.ResolveProfile(ctx, address)
	if err != nil {
		return identity.DIDProfile{}, err
	}

	if payload, jsonErr := json.Marshal(p); jsonErr == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			r.logger.WarnContext(ctx, "profile cache write failed", "error", setErr)
		}
	}
	return p, nil
}

// Invalidate drops a cached profile, e.g. after the holder links a new account.
func (r *Resolver) Invalidate(ctx context.Context, address domain.Address) error {
	return r.client.Del(ctx, profileKeyPrefix+address.String()).Err()
}

func (r *Resolver) count(result string) {
	if r.metrics != nil {
		r.metrics.IncrementCache(result)
	}
}
