// Package trustroot holds the server's signing identity. The key is derived
// once from a provisioned seed and never leaves this package.
package trustroot

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/hkdf"

	"credo-referral/pkg/domain"
)

const (
	didMethodPrefix = "did:ethr:"
	derivationInfo  = "referral-trust-root/v1"
	// MinSeedLength is the shortest seed accepted, in bytes.
	MinSeedLength = 16
)

var (
	ErrSigning      = errors.New("signing failed")
	ErrVerification = errors.New("claim verification failed")
	ErrInvalidSeed  = errors.New("invalid trust root seed")
)

// TrustRoot signs claims on behalf of the service. Signing is safe for
// concurrent use; Destroy must not race with in-flight Sign calls it expects
// to succeed.
type TrustRoot struct {
	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	did     string
	address domain.Address
}

// New derives the signing key from seed with HKDF-SHA256. The same seed always
// yields the same DID. Callers should zero seed afterwards.
func New(seed []byte) (*TrustRoot, error) {
	if len(seed) < MinSeedLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrInvalidSeed, MinSeedLength)
	}
	kdf := hkdf.New(sha256.New, seed, nil, []byte(derivationInfo))

	var key *ecdsa.PrivateKey
	buf := make([]byte, 32)
	defer clear(buf)
	// A 32-byte draw is outside the curve order with negligible probability;
	// draw again rather than fail.
	for attempt := 0; attempt < 4 && key == nil; attempt++ {
		if _, err := io.ReadFull(kdf, buf); err != nil {
			return nil, fmt.Errorf("%w: derive key: %w", ErrInvalidSeed, err)
		}
		key, _ = crypto.ToECDSA(buf)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: no valid key derived", ErrInvalidSeed)
	}

	address := domain.AddressFromCommon(crypto.PubkeyToAddress(key.PublicKey))
	return &TrustRoot{
		key:     key,
		did:     didMethodPrefix + address.String(),
		address: address,
	}, nil
}

func (t *TrustRoot) DID() string {
	return t.did
}

func (t *TrustRoot) Address() domain.Address {
	return t.address
}

// Sign encodes claims as a compact JWS signed with ES256K-R. issuerDID must
// be this root's DID. It returns the token and the raw 65-byte signature.
func (t *TrustRoot) Sign(ctx context.Context, claims jwt.Claims, issuerDID string) (string, []byte, error) {
	_, span := otel.Tracer("credo-referral/trustroot").Start(ctx, "trustroot.sign")
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return "", nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	if issuerDID != t.did {
		span.SetStatus(codes.Error, "issuer mismatch")
		return "", nil, fmt.Errorf("%w: issuer %q is not held by this trust root", ErrSigning, issuerDID)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.key == nil {
		span.SetStatus(codes.Error, "destroyed")
		return "", nil, fmt.Errorf("%w: trust root destroyed", ErrSigning)
	}

	token := jwt.NewWithClaims(SigningMethodES256KR, claims)
	token.Header["kid"] = t.did + "#controller"
	signingString, err := token.SigningString()
	if err != nil {
		span.SetStatus(codes.Error, "encode")
		return "", nil, fmt.Errorf("%w: encode claims: %w", ErrSigning, err)
	}
	sig, err := SigningMethodES256KR.Sign(signingString, t.key)
	if err != nil {
		span.SetStatus(codes.Error, "sign")
		return "", nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return signingString + "." + base64.RawURLEncoding.EncodeToString(sig), sig, nil
}

// Destroy zeroes the key. Later Sign calls fail with ErrSigning.
func (t *TrustRoot) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.key != nil {
		t.key.D.SetInt64(0)
		t.key = nil
	}
}

func (t *TrustRoot) String() string {
	return "TrustRoot(" + t.did + ")"
}

// LogValue keeps key material out of structured logs.
func (t *TrustRoot) LogValue() slog.Value {
	return slog.GroupValue(slog.String("did", t.did))
}

// AddressFromDID extracts the controller address from a did:ethr identifier.
func AddressFromDID(did string) (domain.Address, error) {
	rest, ok := strings.CutPrefix(did, didMethodPrefix)
	if !ok {
		return "", fmt.Errorf("%w: unsupported DID method in %q", ErrVerification, did)
	}
	return domain.ParseAddress(rest)
}

// Verify checks token was signed by issuerDID and decodes it into claims.
// Only the public DID is needed, so third parties can verify too.
func Verify(token, issuerDID string, claims jwt.Claims) error {
	addr, err := AddressFromDID(issuerDID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{AlgES256KR}),
		jwt.WithIssuer(issuerDID),
		jwt.WithIssuedAt(),
	)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return addr.Common(), nil
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return nil
}
