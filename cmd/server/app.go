package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"credo-referral/internal/claims"
	claimmemory "credo-referral/internal/claims/store/memory"
	claimpostgres "credo-referral/internal/claims/store/postgres"
	"credo-referral/internal/identity"
	"credo-referral/internal/identity/cache"
	"credo-referral/internal/identity/httpresolver"
	"credo-referral/internal/identity/static"
	"credo-referral/internal/ledger"
	ledgermemory "credo-referral/internal/ledger/store/memory"
	ledgerpostgres "credo-referral/internal/ledger/store/postgres"
	ledgerredis "credo-referral/internal/ledger/store/redis"
	"credo-referral/internal/platform/config"
	"credo-referral/internal/platform/httpserver"
	"credo-referral/internal/platform/metrics"
	"credo-referral/internal/platform/middleware"
	"credo-referral/internal/platform/postgres"
	"credo-referral/internal/platform/redis"
	"credo-referral/internal/referral"
	"credo-referral/internal/referral/handler"
	"credo-referral/internal/trustroot"
	"credo-referral/pkg/platform/audit"
	auditpublisher "credo-referral/pkg/platform/audit/publisher"
	auditkafka "credo-referral/pkg/platform/audit/store/kafka"
	auditlogger "credo-referral/pkg/platform/audit/store/logger"
)

const auditBufferSize = 256

// app holds everything main needs to run and tear down.
type app struct {
	server    *http.Server
	trustRoot *trustroot.TrustRoot
	closers   []func()
}

// Close releases resources in reverse order of acquisition, so the trust root
// key is destroyed last.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func newApp(ctx context.Context, cfg config.Server, log *slog.Logger) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	root, err := loadTrustRoot(ctx, cfg)
	if err != nil {
		return a, err
	}
	a.trustRoot = root
	a.onClose(root.Destroy)

	m := metrics.New()

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return a, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		a.onClose(func() {
			if cerr := rc.Close(); cerr != nil {
				log.Warn("close redis", "error", cerr)
			}
		})
	}

	ledgerStore, txRunner, claimStore, err := buildStores(ctx, a, cfg, rc, log)
	if err != nil {
		return a, err
	}

	resolver, err := buildResolver(cfg, rc, log, m)
	if err != nil {
		return a, err
	}

	auditor, err := buildAuditor(a, cfg, log)
	if err != nil {
		return a, err
	}

	issuer := claims.NewIssuer(root, txRunner, claimStore)
	svc := referral.NewService(
		resolver,
		referral.NewValidator(referral.DefaultRules(ledgerStore)),
		issuer,
		root.DID(),
		referral.WithAuditor(auditor),
		referral.WithMetrics(m),
		referral.WithLogger(log),
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RPS),
			Burst: cfg.RateLimit.Burst,
		}, log, m)
		a.onClose(limiter.Stop)
	}

	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	handler.New(svc, log, m, limiter, cfg.RequestTimeout).Register(r)

	a.server = httpserver.New(cfg.Addr, r, cfg.RequestTimeout)
	return a, nil
}

// loadTrustRoot reads the seed once, derives the key and wipes the seed.
func loadTrustRoot(ctx context.Context, cfg config.Server) (*trustroot.TrustRoot, error) {
	seed, err := config.SecretsFor(cfg).Secret(ctx, config.TrustRootSeed)
	if err != nil {
		return nil, fmt.Errorf("read trust root seed: %w", err)
	}
	defer clear(seed)

	root, err := trustroot.New(seed)
	if err != nil {
		return nil, fmt.Errorf("init trust root: %w", err)
	}
	return root, nil
}

// buildStores picks the ledger backend: Postgres when a database is
// configured, then Redis, then process memory.
func buildStores(ctx context.Context, a *app, cfg config.Server, rc *redis.Client, log *slog.Logger) (referral.LedgerChecker, ledger.TxRunner, claims.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.onClose(func() {
			if cerr := db.Close(); cerr != nil {
				log.Warn("close postgres", "error", cerr)
			}
		})
		store := ledgerpostgres.New(db)
		log.Info("ledger backend selected", "backend", "postgres")
		return store, ledgerpostgres.NewTxRunner(db, store), claimpostgres.New(db), nil

	case rc != nil:
		store := ledgerredis.New(rc.Client)
		log.Info("ledger backend selected", "backend", "redis")
		return store, ledger.NewCompensatingRunner(store), claimmemory.New(), nil

	default:
		store := ledgermemory.New()
		log.Warn("ledger backend selected", "backend", "memory", "durable", false)
		return store, ledger.NewCompensatingRunner(store), claimmemory.New(), nil
	}
}

// buildResolver returns the remote resolver or the fixture resolver, wrapped
// in the Redis read-through cache when Redis is available.
func buildResolver(cfg config.Server, rc *redis.Client, log *slog.Logger, m *metrics.Metrics) (identity.Resolver, error) {
	var resolver identity.Resolver
	switch {
	case cfg.Resolver.URL != "":
		resolver = httpresolver.New(cfg.Resolver.URL, cfg.Resolver.Timeout,
			httpresolver.WithMetrics(m),
			httpresolver.WithLogger(log),
		)
	case cfg.Resolver.FixturesPath != "":
		fixtures, err := static.LoadFile(cfg.Resolver.FixturesPath)
		if err != nil {
			return nil, fmt.Errorf("load identity fixtures: %w", err)
		}
		log.Warn("using identity fixtures", "path", cfg.Resolver.FixturesPath)
		resolver = fixtures
	default:
		return nil, errors.New("IDENTITY_RESOLVER_URL or IDENTITY_FIXTURES must be set")
	}

	if rc != nil && cfg.Resolver.CacheTTL > 0 {
		resolver = cache.New(resolver, rc.Client, cfg.Resolver.CacheTTL, log, m)
	}
	return resolver, nil
}

func buildAuditor(a *app, cfg config.Server, log *slog.Logger) (audit.Emitter, error) {
	var sink audit.Sink = auditlogger.New(log)
	if len(cfg.Audit.KafkaBrokers) > 0 {
		client, err := auditkafka.NewClient(cfg.Audit.KafkaBrokers, cfg.Audit.Topic)
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		a.onClose(client.Close)
		sink = auditkafka.New(client, cfg.Audit.Topic)
	}

	pub := auditpublisher.NewPublisher(sink,
		auditpublisher.WithAsyncBuffer(auditBufferSize),
		auditpublisher.WithLogger(log),
	)
	a.onClose(pub.Close)
	return pub, nil
}
