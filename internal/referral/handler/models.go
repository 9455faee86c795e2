package handler

import (
	"encoding/hex"
	"strings"
	"time"

	"credo-referral/internal/claims"
	"credo-referral/internal/referral"
	dErrors "credo-referral/pkg/domain-errors"
)

// ReferralRequest is accepted as JSON or as a url-encoded form.
type ReferralRequest struct {
	Referrer string `json:"referrer"`
	Referee  string `json:"referee"`
}

// Validate only trims. Address syntax is checked by the service so that the
// rejection carries the invalid_address reason.
func (r *ReferralRequest) Validate() error {
	r.Referrer = strings.TrimSpace(r.Referrer)
	r.Referee = strings.TrimSpace(r.Referee)
	return nil
}

type VerifyRequest struct {
	Token string `json:"token"`
}

func (r *VerifyRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}

type ClaimResponse struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	Issuer       string    `json:"issuer"`
	Subject      string    `json:"subject"`
	Counterpart  string    `json:"counterpart"`
	IssuedAt     time.Time `json:"issued_at"`
	Signature    string    `json:"signature,omitempty"`
	Token        string    `json:"token,omitempty"`
}

// ReferralResponse carries both claims. The referee is the submitting party,
// so its claim is listed first.
type ReferralResponse struct {
	ConnectionID  string        `json:"connection_id"`
	Issuer        string        `json:"issuer"`
	Referrer      string        `json:"referrer"`
	Referee       string        `json:"referee"`
	RefereeClaim  ClaimResponse `json:"referee_claim"`
	ReferrerClaim ClaimResponse `json:"referrer_claim"`
}

type TrustRootResponse struct {
	DID     string `json:"did"`
	Address string `json:"address"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse mirrors httputil.ErrorResponse with the retry hint added.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Retryable        bool   `json:"retryable"`
}

func toClaimResponse(c claims.Claim) ClaimResponse {
	resp := ClaimResponse{
		ID:           c.ID.String(),
		ConnectionID: c.ConnectionID.String(),
		Issuer:       c.IssuerDID,
		Subject:      c.Subject.String(),
		Counterpart:  c.Payload.Counterpart.String(),
		IssuedAt:     c.IssuedAt.UTC(),
		Token:        c.Token,
	}
	if len(c.Signature) > 0 {
		resp.Signature = "0x" + hex.EncodeToString(c.Signature)
	}
	return resp
}

func toReferralResponse(res referral.Result) ReferralResponse {
	return ReferralResponse{
		ConnectionID:  res.Pair.ConnectionID.String(),
		Issuer:        res.IssuerDID,
		Referrer:      res.Referrer.String(),
		Referee:       res.Referee.String(),
		RefereeClaim:  toClaimResponse(res.Pair.ForReferee),
		ReferrerClaim: toClaimResponse(res.Pair.ForReferrer),
	}
}
