package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration. Secrets are not part of it;
// they are read through a SecretSource.
type Server struct {
	Addr           string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	DatabaseURL string
	Redis       RedisConfig

	Resolver  ResolverConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig

	// TrustRootSeedFile, when set, points FileSecrets at a mounted seed.
	TrustRootSeedFile string
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ResolverConfig configures the identity resolver chain.
type ResolverConfig struct {
	URL          string
	Timeout      time.Duration
	FixturesPath string
	CacheTTL     time.Duration
}

// RateLimitConfig bounds POST /referral per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AuditConfig selects the audit sink.
type AuditConfig struct {
	KafkaBrokers []string
	Topic        string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:      getEnv("REFERRAL_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Resolver: ResolverConfig{
			URL:          os.Getenv("IDENTITY_RESOLVER_URL"),
			FixturesPath: os.Getenv("IDENTITY_FIXTURES"),
		},
		Audit: AuditConfig{
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        getEnv("AUDIT_TOPIC", "referral-audit"),
		},
		TrustRootSeedFile: os.Getenv("TRUST_ROOT_SEED_FILE"),
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Resolver.Timeout, err = durationEnv("IDENTITY_RESOLVER_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Resolver.CacheTTL, err = durationEnv("PROFILE_CACHE_TTL", 5*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.RPS, err = floatEnv("RATE_LIMIT_RPS", 1); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Burst, err = intEnv("RATE_LIMIT_BURST", 5); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// String renders the config for startup logs. It carries no secrets, and
// connection URLs are reduced to whether they are set.
func (s Server) String() string {
	return fmt.Sprintf("addr=%s log_level=%s database=%t redis=%t resolver_url=%t fixtures=%t kafka=%t",
		s.Addr, s.LogLevel, s.DatabaseURL != "", s.Redis.URL != "", s.Resolver.URL != "",
		s.Resolver.FixturesPath != "", len(s.Audit.KafkaBrokers) > 0)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
