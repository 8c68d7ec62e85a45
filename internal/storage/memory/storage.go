package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Devices are copied on the way in and out so callers never share state with it.
type Storage struct {
	mu      sync.RWMutex
	devices map[model.DeviceID]*model.Device
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		devices: make(map[model.DeviceID]*model.Device),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveDevice(ctx context.Context, device *model.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[device.ID] = cloneDevice(device)
	return nil
}

func (s *Storage) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	device, ok := s.devices[id]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	return cloneDevice(device), nil
}

func (s *Storage) ListDevices(ctx context.Context) ([]*model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devices := make([]*model.Device, 0, len(s.devices))
	for _, device := range s.devices {
		devices = append(devices, cloneDevice(device))
	}
	slices.SortFunc(devices, func(a, b *model.Device) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return devices, nil
}

func (s *Storage) ApplyDelta(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal, at time.Time) (*model.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[deviceID]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	place := device.FindPlace(placeID)
	if place == nil {
		return nil, model.ErrPlaceNotFound
	}

	next := place.Balance.Add(delta)
	if next.IsNegative() {
		return nil, model.ErrInsufficientFunds
	}

	place.Balance = next
	device.UpdatedAt = at

	updated := *place
	return &updated, nil
}

func cloneDevice(d *model.Device) *model.Device {
	clone := *d
	clone.Places = slices.Clone(d.Places)
	return &clone
}
