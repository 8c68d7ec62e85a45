// Package session is the operator's view of one device: it fetches the device, keeps its
// players in a places.Store and routes deposits and withdrawals through the mutation service.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/amount"
	"github.com/mcoot/placeledger/internal/services/mutation"
	"github.com/mcoot/placeledger/internal/services/places"
)

// ErrNoDevice is returned when a balance change is attempted before a device is opened
var ErrNoDevice = errors.New("no device selected")

// DeviceSource fetches devices from the ledger
type DeviceSource interface {
	GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error)
}

// Session ties a device's cached players to the mutation flow
type Session struct {
	devices   DeviceSource
	mutations *mutation.Service
	store     *places.Store
	logger    *slog.Logger
}

// New creates a session with nothing selected
func New(devices DeviceSource, mutations *mutation.Service, logger *slog.Logger) *Session {
	return &Session{
		devices:   devices,
		mutations: mutations,
		store:     places.NewStore(),
		logger:    logger,
	}
}

// Open fetches a device and makes it the selected one
func (s *Session) Open(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	device, err := s.devices.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store.Load(device)
	s.logger.Debug("device opened", slog.Int64("device_id", int64(id)), slog.Int("places", len(device.Places)))
	return device, nil
}

// Leave discards the selected device's players
func (s *Session) Leave() {
	s.store.Clear()
}

// Players returns the selected device's players with their current balances
func (s *Session) Players() []model.Place {
	return s.store.Places()
}

// Deposit validates raw and adds it to a place
func (s *Session) Deposit(ctx context.Context, placeID model.PlaceID, raw string) (*model.BalanceUpdate, error) {
	return s.change(ctx, placeID, raw, s.mutations.Deposit)
}

// Withdraw validates raw and removes it from a place
func (s *Session) Withdraw(ctx context.Context, placeID model.PlaceID, raw string) (*model.BalanceUpdate, error) {
	return s.change(ctx, placeID, raw, s.mutations.Withdraw)
}

type mutateFunc func(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, amt amount.ValidatedAmount, current decimal.Decimal) (*model.BalanceUpdate, error)

func (s *Session) change(ctx context.Context, placeID model.PlaceID, raw string, mutate mutateFunc) (*model.BalanceUpdate, error) {
	deviceID, ok := s.store.DeviceID()
	if !ok {
		return nil, ErrNoDevice
	}
	place, err := s.store.Place(placeID)
	if err != nil {
		return nil, fmt.Errorf("device %d: %w", deviceID, err)
	}

	amt, err := amount.Validate(raw)
	if err != nil {
		return nil, model.NewMutationError(model.FailureValidation, err.Error(), err)
	}

	update, err := mutate(ctx, deviceID, placeID, amt, place.Balance)
	if err != nil {
		return nil, err
	}

	s.store.Apply(deviceID, model.Reconciled{
		PlaceID:    update.PlaceID,
		NewBalance: update.NewBalance,
		Currency:   update.Currency,
	})
	return update, nil
}
