package model

import (
	"errors"
	"fmt"
)

// Ledger lookup errors
var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrPlaceNotFound  = errors.New("place not found")
)

// Mutation failure categories. Every MutationError matches exactly one of these with errors.Is.
var (
	ErrValidation        = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidDelta      = errors.New("balance change cannot be zero")
	ErrNetwork           = errors.New("network error")
	ErrServer            = errors.New("ledger error")
	ErrMalformedResponse = errors.New("unrecognized ledger response")
)

// FailureKind names a mutation failure category for display and JSON output
type FailureKind string

const (
	FailureValidation        FailureKind = "validation"
	FailureInsufficientFunds FailureKind = "insufficient_funds"
	FailureInvalidDelta      FailureKind = "invalid_delta"
	FailureNetwork           FailureKind = "network"
	FailureServer            FailureKind = "server"
	FailureMalformedResponse FailureKind = "malformed_response"
)

var kindSentinels = map[FailureKind]error{
	FailureValidation:        ErrValidation,
	FailureInsufficientFunds: ErrInsufficientFunds,
	FailureInvalidDelta:      ErrInvalidDelta,
	FailureNetwork:           ErrNetwork,
	FailureServer:            ErrServer,
	FailureMalformedResponse: ErrMalformedResponse,
}

// MutationError is the failure arm of a mutation outcome.
// Reason is safe to show to an operator; Err keeps the underlying cause for logs.
type MutationError struct {
	Kind   FailureKind
	Reason string
	Err    error
}

// NewMutationError builds a MutationError, defaulting the reason to the category text
func NewMutationError(kind FailureKind, reason string, cause error) *MutationError {
	if reason == "" {
		if sentinel, ok := kindSentinels[kind]; ok {
			reason = sentinel.Error()
		}
	}
	return &MutationError{Kind: kind, Reason: reason, Err: cause}
}

func (e *MutationError) Error() string {
	return e.Reason
}

// Is matches the category sentinel for the error's kind
func (e *MutationError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// String includes the cause, for logs
func (e *MutationError) String() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Reason, e.Err)
}
