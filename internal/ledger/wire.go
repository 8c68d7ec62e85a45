package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
)

// Wire paths, relative to the ledger base URL
const (
	DevicesPath     = "/a/devices/"
	DevicePath      = "/a/devices/{deviceId}/"
	UpdatePlacePath = "/a/devices/{deviceId}/place/{placeId}/update"
	HealthPath      = "/health"
	DeviceIDParam   = "deviceId"
	PlaceIDParam    = "placeId"
)

// Error codes carried in ErrorBody.Code
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidDelta   = "INVALID_DELTA"
	CodeDeviceNotFound = "DEVICE_NOT_FOUND"
	CodePlaceNotFound  = "PLACE_NOT_FOUND"
	CodeInsufficient   = "INSUFFICIENT_FUNDS"
	CodeInternalError  = "INTERNAL_ERROR"
)

// Number is a decimal that travels as a bare JSON number
type Number struct {
	decimal.Decimal
}

// NewNumber wraps d for the wire
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

// MarshalJSON writes the exact decimal digits without quotes
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

// UnmarshalJSON accepts a number or a quoted number
func (n *Number) UnmarshalJSON(b []byte) error {
	return n.Decimal.UnmarshalJSON(b)
}

// DeviceDTO is a device as the ledger serves it
type DeviceDTO struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Places    []PlaceDTO `json:"places"`
}

// PlaceDTO is a place as the ledger serves it
type PlaceDTO struct {
	DeviceID int64  `json:"device_id"`
	Place    int64  `json:"place"`
	Balances Number `json:"balances"`
	Currency string `json:"currency"`
}

// UpdateRequest is the body of a place balance update; Delta is signed
type UpdateRequest struct {
	Delta Number `json:"delta"`
}

// ErrorBody is the ledger's error shape. Older deployments only set Message.
type ErrorBody struct {
	Err     string `json:"err,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ToModel converts a wire device to the model
func (d DeviceDTO) ToModel() *model.Device {
	device := &model.Device{
		ID:        model.DeviceID(d.ID),
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Places:    make([]model.Place, 0, len(d.Places)),
	}
	for _, p := range d.Places {
		device.Places = append(device.Places, model.Place{
			ID:       model.PlaceID(p.Place),
			DeviceID: model.DeviceID(p.DeviceID),
			Balance:  p.Balances.Decimal,
			Currency: p.Currency,
		})
	}
	return device
}

// DeviceFromModel converts a model device to its wire form
func DeviceFromModel(d *model.Device) DeviceDTO {
	dto := DeviceDTO{
		ID:        int64(d.ID),
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Places:    make([]PlaceDTO, 0, len(d.Places)),
	}
	for _, p := range d.Places {
		dto.Places = append(dto.Places, PlaceDTO{
			DeviceID: int64(d.ID),
			Place:    int64(p.ID),
			Balances: NewNumber(p.Balance),
			Currency: p.Currency,
		})
	}
	return dto
}
