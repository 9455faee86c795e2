package audit

import (
	"context"
	"time"
)

// Event is emitted from the referral pipeline to capture key outcomes. Keep it
// transport-agnostic so sinks can fan out. It never carries key material or
// claim signatures.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	Referrer     string    `json:"referrer,omitempty"`
	Referee      string    `json:"referee,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	ConnectionID string    `json:"connection_id,omitempty"`
	IssuerDID    string    `json:"issuer_did,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	ClientIP     string    `json:"client_ip,omitempty"`
	Client       string    `json:"client,omitempty"`
}

// AuditEvent names an action recorded in Event.Action.
type AuditEvent string

const (
	EventReferralIssued   AuditEvent = "referral_issued"
	EventReferralRejected AuditEvent = "referral_rejected"
	EventReferralFailed   AuditEvent = "referral_failed"
	EventClaimVerified    AuditEvent = "claim_verified"
)

// Sink persists or forwards events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is what services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
