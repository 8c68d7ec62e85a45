// Package places holds the place list of the device an operator is looking at.
package places

import (
	"slices"
	"sync"

	"github.com/mcoot/placeledger/internal/model"
)

// ApplyMutation returns a copy of places with the reconciled place's balance replaced.
// Order and all other entries are preserved. An unknown place id returns places unchanged.
func ApplyMutation(places []model.Place, r model.Reconciled) []model.Place {
	idx := -1
	for i := range places {
		if places[i].ID == r.PlaceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return places
	}

	updated := make([]model.Place, len(places))
	copy(updated, places)
	updated[idx].Balance = r.NewBalance
	if r.Currency != "" {
		updated[idx].Currency = r.Currency
	}
	return updated
}

// Store holds the places of the selected device. The slice is replaced on every update,
// never mutated in place, so a slice handed out by Places stays valid.
type Store struct {
	mu       sync.RWMutex
	deviceID model.DeviceID
	selected bool
	places   []model.Place
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Load selects a device and caches its places as display players
func (s *Store) Load(device *model.Device) {
	players := PlayersFromDevice(device)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceID = device.ID
	s.selected = true
	s.places = players
}

// Clear discards the cached places when the operator navigates away
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceID = 0
	s.selected = false
	s.places = nil
}

// DeviceID returns the selected device, if any
func (s *Store) DeviceID() (model.DeviceID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceID, s.selected
}

// Places returns a copy of the current place list
func (s *Store) Places() []model.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.places)
}

// Place returns a single cached place
func (s *Store) Place(id model.PlaceID) (model.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.places {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Place{}, model.ErrPlaceNotFound
}

// Apply records a reconciled mutation result for deviceID. Results are applied in
// arrival order; a result for a device that is no longer selected is dropped.
func (s *Store) Apply(deviceID model.DeviceID, r model.Reconciled) []model.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected && s.deviceID == deviceID {
		s.places = ApplyMutation(s.places, r)
	}
	return slices.Clone(s.places)
}
