package claims

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credo-referral/internal/trustroot"
	"credo-referral/pkg/domain"
)

func newRoot(t *testing.T) *trustroot.TrustRoot {
	t.Helper()
	root, err := trustroot.New(bytes.Repeat([]byte{0x22}, 32))
	require.NoError(t, err)
	return root
}

func TestVerifyRejectsForeignClaimType(t *testing.T) {
	root := newRoot(t)
	c := newDraft(domain.NewConnectionID(), root.DID(),
		SubjectAddress(domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")),
		CounterpartAddress(domain.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")),
		time.Now().Truncate(time.Second))
	tc := c.tokenClaims()
	tc.Type = "SomethingElse"

	token, _, err := root.Sign(context.Background(), tc, root.DID())
	require.NoError(t, err)

	_, err = Verify(token, root.DID())
	assert.ErrorIs(t, err, trustroot.ErrVerification)
}

func TestVerifyRejectsSelfCounterpart(t *testing.T) {
	root := newRoot(t)
	addr := domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	c := newDraft(domain.NewConnectionID(), root.DID(), SubjectAddress(addr), CounterpartAddress(addr), time.Now().Truncate(time.Second))

	token, _, err := root.Sign(context.Background(), c.tokenClaims(), root.DID())
	require.NoError(t, err)

	_, err = Verify(token, root.DID())
	assert.ErrorIs(t, err, trustroot.ErrVerification)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	root := newRoot(t)
	_, err := Verify("not.a.token", root.DID())
	assert.ErrorIs(t, err, trustroot.ErrVerification)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"iss": root.DID(), "type": ClaimType}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = Verify(unsigned, root.DID())
	assert.ErrorIs(t, err, trustroot.ErrVerification)
}
