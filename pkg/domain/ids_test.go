package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Run("accepts upper case hex and canonicalizes to lower case", func(t *testing.T) {
		addr, err := ParseAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
		require.NoError(t, err)
		assert.Equal(t, Address("0x"+strings.Repeat("a", 40)), addr)
	})

	t.Run("accepts mixed case without checksum verification", func(t *testing.T) {
		// Deliberately wrong EIP-55 casing.
		_, err := ParseAddress("0xDeAdBeEfdeadbeefdeadbeefdeadbeefdeadbeef")
		require.NoError(t, err)
	})

	t.Run("accepts upper case prefix", func(t *testing.T) {
		addr, err := ParseAddress("0X" + strings.Repeat("b", 40))
		require.NoError(t, err)
		assert.Equal(t, "0x"+strings.Repeat("b", 40), addr.String())
	})

	t.Run("treats case variants as the same address", func(t *testing.T) {
		a := MustParseAddress("0x" + strings.Repeat("C", 40))
		b := MustParseAddress("0x" + strings.Repeat("c", 40))
		assert.Equal(t, a, b)
	})

	rejected := map[string]string{
		"empty":             "",
		"too short":         "0x" + strings.Repeat("a", 39),
		"too long":          "0x" + strings.Repeat("a", 41),
		"missing prefix":    strings.Repeat("a", 42),
		"non-hex character": "0x" + strings.Repeat("a", 39) + "g",
		"surrounding space": " 0x" + strings.Repeat("a", 40),
		"wrong prefix":      "1x" + strings.Repeat("a", 40),
	}
	for name, input := range rejected {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := ParseAddress(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestAddressCommonRoundTrip(t *testing.T) {
	addr := MustParseAddress("0xDeAdBeEfdeadbeefdeadbeefdeadbeefdeadbeef")
	assert.Equal(t, addr, AddressFromCommon(addr.Common()))
}

func TestParseIDs(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseClaimID("")
		require.Error(t, err)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseConnectionID("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseClaimID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		id, err := ParseClaimID(u.String())
		require.NoError(t, err)
		assert.Equal(t, ClaimID(u), id)
		assert.False(t, id.IsNil())
	})

	t.Run("generated ids are distinct", func(t *testing.T) {
		assert.NotEqual(t, NewConnectionID(), NewConnectionID())
	})
}
