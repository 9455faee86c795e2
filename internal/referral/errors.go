package referral

import (
	"errors"
	"fmt"
)

// Reason is the stable code attached to every pipeline failure.
type Reason string

const (
	ReasonInvalidAddress      Reason = "invalid_address"
	ReasonSelfReferral        Reason = "self_referral"
	ReasonUnverifiedIdentity  Reason = "unverified_identity"
	ReasonDuplicateConnection Reason = "duplicate_connection"
	ReasonProfileNotFound     Reason = "profile_not_found"
	ReasonResolverUnavailable Reason = "resolver_unavailable"
	ReasonSigningError        Reason = "signing_error"
	ReasonLedgerUnavailable   Reason = "ledger_unavailable"
)

// Class separates caller mistakes from infrastructure failures.
type Class string

const (
	ClassClient Class = "client"
	ClassInfra  Class = "infra"
)

// Class reports whether retrying with the same input can succeed.
func (r Reason) Class() Class {
	switch r {
	case ReasonInvalidAddress, ReasonSelfReferral, ReasonUnverifiedIdentity, ReasonDuplicateConnection:
		return ClassClient
	default:
		return ClassInfra
	}
}

// Error is returned by Service.Refer for every rejection or failure.
type Error struct {
	Reason Reason
	Err    error
}

func newError(reason Reason, err error) *Error {
	return &Error{Reason: reason, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Class() Class {
	return e.Reason.Class()
}

// Retryable is true for infra failures, which the caller may retry unchanged.
func (e *Error) Retryable() bool {
	return e.Class() == ClassInfra
}

// ReasonOf extracts the reason from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
