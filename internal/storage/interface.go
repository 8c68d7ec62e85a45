package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
)

// Storage defines the persistence the ledger simulator needs
type Storage interface {
	// Device operations
	SaveDevice(ctx context.Context, device *model.Device) error
	GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error)
	ListDevices(ctx context.Context) ([]*model.Device, error)

	// ApplyDelta atomically adds delta to a place balance and stamps the device's
	// UpdatedAt. It fails with model.ErrInsufficientFunds, leaving the balance
	// untouched, when the result would be negative.
	ApplyDelta(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal, at time.Time) (*model.Place, error)
}
