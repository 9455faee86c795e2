package trustroot

import (
	"crypto/ecdsa"
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
)

// AlgES256KR is secp256k1 over SHA-256 with a recoverable R||S||V signature,
// the algorithm used by did:ethr issuers.
const AlgES256KR = "ES256K-R"

// SigningMethodES256KR signs with an *ecdsa.PrivateKey and verifies against a
// common.Address: the public key is recovered from the signature and its
// address compared.
var SigningMethodES256KR = &signingMethodES256KR{}

func init() {
	jwt.RegisterSigningMethod(AlgES256KR, func() jwt.SigningMethod { return SigningMethodES256KR })
}

type signingMethodES256KR struct{}

func (m *signingMethodES256KR) Alg() string {
	return AlgES256KR
}

func (m *signingMethodES256KR) Sign(signingString string, key any) ([]byte, error) {
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok || priv == nil {
		return nil, jwt.ErrInvalidKeyType
	}
	digest := sha256.Sum256([]byte(signingString))
	return crypto.Sign(digest[:], priv)
}

func (m *signingMethodES256KR) Verify(signingString string, sig []byte, key any) error {
	want, ok := key.(common.Address)
	if !ok {
		return jwt.ErrInvalidKeyType
	}
	if len(sig) != crypto.SignatureLength {
		return jwt.ErrSignatureInvalid
	}
	digest := sha256.Sum256([]byte(signingString))
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return jwt.ErrSignatureInvalid
	}
	if crypto.PubkeyToAddress(*pub) != want {
		return jwt.ErrSignatureInvalid
	}
	return nil
}
