// Package claims issues and verifies the signed referral claim pair.
package claims

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"credo-referral/pkg/domain"
)

// ClaimType is carried in every token so verifiers can tell referral claims
// from other credentials signed by the same root.
const ClaimType = "ReferralConnection"

// SubjectAddress is the party a claim is issued to.
type SubjectAddress domain.Address

// CounterpartAddress is the other party of the connection. It is a distinct
// type so a subject can never be passed where a counterpart is expected.
type CounterpartAddress domain.Address

func (a SubjectAddress) String() string     { return string(a) }
func (a CounterpartAddress) String() string { return string(a) }

type Payload struct {
	Counterpart CounterpartAddress `json:"counterpart"`
}

// Claim is one signed attestation of a referral connection.
type Claim struct {
	ID           domain.ClaimID
	ConnectionID domain.ConnectionID
	IssuerDID    string
	Subject      SubjectAddress
	Payload      Payload
	IssuedAt     time.Time
	Signature    []byte
	Token        string
}

// Pair is what a successful issuance returns: both claims or nothing.
type Pair struct {
	ConnectionID domain.ConnectionID
	ForReferee   Claim
	ForReferrer  Claim
}

// tokenClaims is the JWT body.
type tokenClaims struct {
	jwt.RegisteredClaims
	Type         string  `json:"type"`
	ConnectionID string  `json:"connection_id"`
	Claim        Payload `json:"claim"`
}

func newDraft(connection domain.ConnectionID, issuerDID string, subject SubjectAddress, counterpart CounterpartAddress, issuedAt time.Time) Claim {
	return Claim{
		ID:           domain.NewClaimID(),
		ConnectionID: connection,
		IssuerDID:    issuerDID,
		Subject:      subject,
		Payload:      Payload{Counterpart: counterpart},
		IssuedAt:     issuedAt,
	}
}

func (c Claim) tokenClaims() tokenClaims {
	return tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   c.IssuerDID,
			Subject:  c.Subject.String(),
			ID:       c.ID.String(),
			IssuedAt: jwt.NewNumericDate(c.IssuedAt),
		},
		Type:         ClaimType,
		ConnectionID: c.ConnectionID.String(),
		Claim:        c.Payload,
	}
}
