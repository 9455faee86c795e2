package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("REFERRAL_ADDR", "")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.Resolver.Timeout)
		assert.Equal(t, "referral-audit", cfg.Audit.Topic)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("REFERRAL_ADDR", ":9090")
		t.Setenv("PROFILE_CACHE_TTL", "30s")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 30*time.Second, cfg.Resolver.CacheTTL)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
	})

	t.Run("rejects malformed durations", func(t *testing.T) {
		t.Setenv("REQUEST_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "REQUEST_TIMEOUT")
	})
}

func TestServerStringOmitsURLs(t *testing.T) {
	cfg := Server{Addr: ":8080", DatabaseURL: "postgres://user:pw@db/referral"}
	assert.NotContains(t, cfg.String(), "pw")
	assert.Contains(t, cfg.String(), "database=true")
}

func TestEnvSecrets(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes hex", func(t *testing.T) {
		s := EnvSecrets{lookup: func(string) (string, bool) { return "0x0102ff", true }}
		b, err := s.Secret(ctx, TrustRootSeed)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0xff}, b)
	})

	t.Run("missing", func(t *testing.T) {
		s := EnvSecrets{lookup: func(string) (string, bool) { return "", false }}
		_, err := s.Secret(ctx, TrustRootSeed)
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("invalid hex does not echo the value", func(t *testing.T) {
		s := EnvSecrets{lookup: func(string) (string, bool) { return "zz-top-secret", true }}
		_, err := s.Secret(ctx, TrustRootSeed)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "top-secret")
	})
}

func TestFileSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed")
	require.NoError(t, os.WriteFile(path, []byte("abcd\n"), 0o600))

	s := NewFileSecrets(map[string]string{TrustRootSeed: path})
	b, err := s.Secret(context.Background(), TrustRootSeed)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab, 0xcd}, b)

	_, err = s.Secret(context.Background(), "OTHER")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}
