// Package devices is the authoritative side of the simulated ledger: it owns device
// balances and decides whether a balance change is allowed.
package devices

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/dependencies/clock"
	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/storage"
)

// MaxDeltaPlaces is the finest precision the ledger books
const MaxDeltaPlaces = 2

// ErrDeltaTooPrecise rejects deltas finer than a minor unit
var ErrDeltaTooPrecise = errors.New("delta has more than 2 decimal places")

// Service provides device reads and balance updates
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new device Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// ListDevices returns every device with its places
func (s *Service) ListDevices(ctx context.Context) ([]*model.Device, error) {
	return s.storage.ListDevices(ctx)
}

// GetDevice returns one device with its places
func (s *Service) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	return s.storage.GetDevice(ctx, id)
}

// UpdateBalance applies a signed delta to a place. The ledger never lets a balance go
// negative, whatever the client checked beforehand.
func (s *Service) UpdateBalance(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal) (*model.Place, error) {
	if delta.IsZero() {
		return nil, model.ErrInvalidDelta
	}
	if !delta.Equal(delta.Round(MaxDeltaPlaces)) {
		return nil, ErrDeltaTooPrecise
	}

	place, err := s.storage.ApplyDelta(ctx, deviceID, placeID, delta, s.clock.Now())
	if err != nil {
		s.logger.Info("balance update rejected",
			slog.Int64("device_id", int64(deviceID)),
			slog.Int64("place_id", int64(placeID)),
			slog.String("delta", delta.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("balance updated",
		slog.Int64("device_id", int64(deviceID)),
		slog.Int64("place_id", int64(placeID)),
		slog.String("delta", delta.String()),
		slog.String("balance", place.Balance.String()),
	)
	return place, nil
}

// Seed stores the given devices, replacing any with the same id
func (s *Service) Seed(ctx context.Context, devices []*model.Device) error {
	for _, d := range devices {
		if err := s.storage.SaveDevice(ctx, d); err != nil {
			return err
		}
	}
	s.logger.Info("ledger seeded", slog.Int("devices", len(devices)))
	return nil
}
