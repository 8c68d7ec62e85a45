package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeviceID identifies a physical device on the ledger
type DeviceID int64

// PlaceID is the place number on a device (displayed as a player seat)
type PlaceID int64

// Device is a physical unit exposing one or more places
type Device struct {
	ID        DeviceID  `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Places    []Place   `json:"places"`
}

// Place is a numbered seat on a device with its own balance.
// The balance is a cached copy; the ledger is authoritative.
type Place struct {
	ID       PlaceID         `json:"id"`
	DeviceID DeviceID        `json:"device_id"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// FindPlace returns the place with the given id, or nil
func (d *Device) FindPlace(id PlaceID) *Place {
	for i := range d.Places {
		if d.Places[i].ID == id {
			return &d.Places[i]
		}
	}
	return nil
}
