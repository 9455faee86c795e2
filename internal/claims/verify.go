package claims

import (
	"encoding/base64"
	"fmt"
	"strings"

	"credo-referral/internal/trustroot"
	"credo-referral/pkg/domain"
)

// Verify checks that token is a referral claim signed by issuerDID and
// returns its decoded content.
func Verify(token, issuerDID string) (Claim, error) {
	var tc tokenClaims
	if err := trustroot.Verify(token, issuerDID, &tc); err != nil {
		return Claim{}, err
	}
	if tc.Type != ClaimType {
		return Claim{}, fmt.Errorf("%w: unexpected claim type %q", trustroot.ErrVerification, tc.Type)
	}

	id, err := domain.ParseClaimID(tc.ID)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %w", trustroot.ErrVerification, err)
	}
	connID, err := domain.ParseConnectionID(tc.ConnectionID)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %w", trustroot.ErrVerification, err)
	}
	subject, err := domain.ParseAddress(tc.Subject)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: subject: %w", trustroot.ErrVerification, err)
	}
	counterpart, err := domain.ParseAddress(tc.Claim.Counterpart.String())
	if err != nil {
		return Claim{}, fmt.Errorf("%w: counterpart: %w", trustroot.ErrVerification, err)
	}
	if subject == counterpart {
		return Claim{}, fmt.Errorf("%w: claim names its own subject as counterpart", trustroot.ErrVerification)
	}
	if tc.IssuedAt == nil {
		return Claim{}, fmt.Errorf("%w: missing iat", trustroot.ErrVerification)
	}

	sig, err := base64.RawURLEncoding.DecodeString(token[strings.LastIndex(token, ".")+1:])
	if err != nil {
		return Claim{}, fmt.Errorf("%w: signature encoding: %w", trustroot.ErrVerification, err)
	}

	return Claim{
		ID:           id,
		ConnectionID: connID,
		IssuerDID:    tc.Issuer,
		Subject:      SubjectAddress(subject),
		Payload:      Payload{Counterpart: CounterpartAddress(counterpart)},
		IssuedAt:     tc.IssuedAt.UTC(),
		Signature:    sig,
		Token:        token,
	}, nil
}
