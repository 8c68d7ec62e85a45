package model

import "github.com/shopspring/decimal"

// MutationRequest asks the ledger to apply a signed delta to one place.
// Positive deltas deposit, negative deltas withdraw. Delta is never zero.
type MutationRequest struct {
	DeviceID DeviceID
	PlaceID  PlaceID
	Delta    decimal.Decimal
}

// IsWithdrawal reports whether the request removes funds
func (r MutationRequest) IsWithdrawal() bool {
	return r.Delta.IsNegative()
}

// Reconciled is the canonical reading of a ledger mutation response
type Reconciled struct {
	PlaceID    PlaceID
	NewBalance decimal.Decimal
	Currency   string // empty when the ledger did not report one
}

// BalanceUpdate is the successful outcome of a mutation
type BalanceUpdate struct {
	DeviceID   DeviceID        `json:"device_id"`
	PlaceID    PlaceID         `json:"place_id"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Currency   string          `json:"currency"`
}
