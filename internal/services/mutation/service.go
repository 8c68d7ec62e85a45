// Package mutation issues deposit and withdraw requests against the remote ledger.
package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/ledger"
	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/amount"
	"github.com/mcoot/placeledger/internal/services/reconcile"
)

// Ledger is the remote system of record for balances
type Ledger interface {
	UpdatePlace(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal) ([]byte, error)
}

// Option configures a Service
type Option func(*Service)

// WithPlaceSerialization sends mutations for the same place to the ledger one at a time,
// so their results arrive in request order. Without it, concurrent mutations race and
// the last response to arrive wins.
func WithPlaceSerialization() Option {
	return func(s *Service) {
		s.locks = newPlaceLocks()
	}
}

// Service applies balance mutations. Each call makes at most one ledger request and
// every failure comes back as a *model.MutationError.
type Service struct {
	ledger Ledger
	logger *slog.Logger
	locks  *placeLocks
}

// New creates a mutation service
func New(ledger Ledger, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		ledger: ledger,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deposit adds a validated amount to a place
func (s *Service) Deposit(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, amt amount.ValidatedAmount, currentBalance decimal.Decimal) (*model.BalanceUpdate, error) {
	return s.Mutate(ctx, model.MutationRequest{
		DeviceID: deviceID,
		PlaceID:  placeID,
		Delta:    amt.Decimal(),
	}, currentBalance)
}

// Withdraw removes a validated amount from a place
func (s *Service) Withdraw(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, amt amount.ValidatedAmount, currentBalance decimal.Decimal) (*model.BalanceUpdate, error) {
	return s.Mutate(ctx, model.MutationRequest{
		DeviceID: deviceID,
		PlaceID:  placeID,
		Delta:    amt.Decimal().Neg(),
	}, currentBalance)
}

// Mutate applies req.Delta to a place. currentBalance is the caller's cached balance and
// only drives the local overdraw check; the ledger still decides.
func (s *Service) Mutate(ctx context.Context, req model.MutationRequest, currentBalance decimal.Decimal) (*model.BalanceUpdate, error) {
	logger := s.logger.With(
		slog.Int64("device_id", int64(req.DeviceID)),
		slog.Int64("place_id", int64(req.PlaceID)),
		slog.String("delta", req.Delta.String()),
	)

	if req.Delta.IsZero() {
		return nil, model.NewMutationError(model.FailureInvalidDelta, "", nil)
	}
	if req.IsWithdrawal() && req.Delta.Abs().GreaterThan(currentBalance) {
		logger.Info("withdrawal rejected locally", slog.String("balance", currentBalance.String()))
		return nil, model.NewMutationError(model.FailureInsufficientFunds, "", nil)
	}

	if s.locks != nil {
		unlock := s.locks.lock(req.DeviceID, req.PlaceID)
		defer unlock()
	}

	body, err := s.ledger.UpdatePlace(ctx, req.DeviceID, req.PlaceID, req.Delta)
	if err != nil {
		merr := classifyTransportError(err)
		logger.Warn("balance mutation failed", slog.String("kind", string(merr.Kind)), slog.String("error", err.Error()))
		return nil, merr
	}

	update, merr := interpret(req, body)
	if merr != nil {
		logger.Warn("balance mutation failed", slog.String("kind", string(merr.Kind)), slog.String("reason", merr.Reason))
		return nil, merr
	}

	logger.Info("balance mutated", slog.String("new_balance", update.NewBalance.String()))
	return update, nil
}

// interpret reads a 2xx ledger body
func interpret(req model.MutationRequest, body []byte) (*model.BalanceUpdate, *model.MutationError) {
	if msg, ok := reconcile.ErrorMessage(body); ok {
		var eb ledger.ErrorBody
		_ = json.Unmarshal(body, &eb)
		return nil, rejection(eb.Code, msg, nil)
	}

	r := reconcile.Reconcile(body)
	if r == nil {
		return nil, model.NewMutationError(model.FailureMalformedResponse, "", nil)
	}

	return &model.BalanceUpdate{
		DeviceID:   req.DeviceID,
		PlaceID:    r.PlaceID,
		NewBalance: r.NewBalance,
		Currency:   r.Currency,
	}, nil
}

// classifyTransportError maps ledger client errors to mutation failures
func classifyTransportError(err error) *model.MutationError {
	var se *ledger.StatusError
	switch {
	case errors.As(err, &se):
		return rejection(se.Code, se.Message, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.NewMutationError(model.FailureNetwork, "ledger request was interrupted", err)
	case errors.Is(err, ledger.ErrNetwork):
		return model.NewMutationError(model.FailureNetwork, "could not reach the ledger", err)
	default:
		return model.NewMutationError(model.FailureNetwork, "could not reach the ledger", err)
	}
}

// rejection is a ledger-side refusal; overdraws keep their own kind so callers
// treat them like the local check
func rejection(code, message string, cause error) *model.MutationError {
	if code == ledger.CodeInsufficient {
		return model.NewMutationError(model.FailureInsufficientFunds, message, cause)
	}
	return model.NewMutationError(model.FailureServer, message, cause)
}
