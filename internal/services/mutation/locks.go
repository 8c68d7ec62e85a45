package mutation

import (
	"sync"

	"github.com/mcoot/placeledger/internal/model"
)

type placeKey struct {
	deviceID model.DeviceID
	placeID  model.PlaceID
}

type placeLock struct {
	mu   sync.Mutex
	refs int
}

// placeLocks is a mutex per place, dropped once nobody holds or waits for it
type placeLocks struct {
	mu    sync.Mutex
	locks map[placeKey]*placeLock
}

func newPlaceLocks() *placeLocks {
	return &placeLocks{locks: make(map[placeKey]*placeLock)}
}

func (l *placeLocks) lock(deviceID model.DeviceID, placeID model.PlaceID) func() {
	key := placeKey{deviceID, placeID}

	l.mu.Lock()
	pl, ok := l.locks[key]
	if !ok {
		pl = &placeLock{}
		l.locks[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	return func() {
		pl.mu.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *placeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
