package config

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// TrustRootSeed names the secret holding the trust root seed.
const TrustRootSeed = "TRUST_ROOT_SEED"

// ErrSecretNotFound is returned when a source has no value for a name.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource supplies provisioned secrets out-of-band from request input.
// Values are hex-encoded at rest and returned decoded.
type SecretSource interface {
	Secret(ctx context.Context, name string) ([]byte, error)
}

// EnvSecrets reads hex secrets from the environment. Intended for development.
type EnvSecrets struct {
	lookup func(string) (string, bool)
}

func NewEnvSecrets() EnvSecrets {
	return EnvSecrets{lookup: os.LookupEnv}
}

func (e EnvSecrets) Secret(_ context.Context, name string) ([]byte, error) {
	v, ok := e.lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	return decodeHex(name, v)
}

// FileSecrets reads a hex secret from a mounted file, e.g. a Kubernetes secret volume.
type FileSecrets struct {
	paths map[string]string
}

func NewFileSecrets(paths map[string]string) FileSecrets {
	return FileSecrets{paths: paths}
}

func (f FileSecrets) Secret(_ context.Context, name string) ([]byte, error) {
	path, ok := f.paths[name]
	if !ok || path == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", name, err)
	}
	return decodeHex(name, string(raw))
}

// SecretsFor picks FileSecrets when a seed file is configured, EnvSecrets otherwise.
func SecretsFor(cfg Server) SecretSource {
	if cfg.TrustRootSeedFile != "" {
		return NewFileSecrets(map[string]string{TrustRootSeed: cfg.TrustRootSeedFile})
	}
	return NewEnvSecrets()
}

func decodeHex(name, v string) ([]byte, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "0x")
	b, err := hex.DecodeString(v)
	if err != nil {
		// The decode error can echo input bytes; keep it out of the message.
		return nil, fmt.Errorf("secret %s is not valid hex", name)
	}
	return b, nil
}
