package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned when a string is not a well-formed chain address.
var ErrInvalidAddress = errors.New("invalid address")

const addressHexLength = 2 * common.AddressLength

// Address is a syntactically valid chain address in canonical lowercase form
// ("0x" followed by 40 lowercase hex characters). Checksums are not verified.
type Address string

// ParseAddress validates s and returns its canonical form. It performs no I/O.
func ParseAddress(s string) (Address, error) {
	if len(s) != 2+addressHexLength {
		return "", fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidAddress, 2+addressHexLength, len(s))
	}
	if s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return "", fmt.Errorf("%w: missing 0x prefix", ErrInvalidAddress)
	}
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: non-hex characters", ErrInvalidAddress)
	}
	return Address("0x" + strings.ToLower(s[2:])), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return string(a)
}

// IsNil returns true for the zero value.
func (a Address) IsNil() bool {
	return a == ""
}

// Common converts to the go-ethereum representation.
func (a Address) Common() common.Address {
	return common.HexToAddress(string(a))
}

// AddressFromCommon canonicalizes a go-ethereum address.
func AddressFromCommon(c common.Address) Address {
	return Address(strings.ToLower(c.Hex()))
}
