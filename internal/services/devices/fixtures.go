package devices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
)

// FixtureDevices returns a fresh copy of the demo devices the simulator starts with.
// Each call builds new values; nothing here is shared between ledgers.
func FixtureDevices() []*model.Device {
	return []*model.Device{
		fixture(1, "Device Alpha", "2024-01-15T10:00:00Z", "2024-01-20T15:30:00Z", "1250.50", "850.75", "2100.00"),
		fixture(2, "Device Beta", "2024-01-16T11:00:00Z", "2024-01-21T16:00:00Z", "500.25", "1750.00"),
		fixture(3, "Device Gamma", "2024-01-17T12:00:00Z", "2024-01-22T17:00:00Z", "3200.50"),
		fixture(4, "Device Delta", "2024-01-18T13:00:00Z", "2024-01-23T18:00:00Z", "950.00", "150.25", "2750.75"),
	}
}

func fixture(id model.DeviceID, name, created, updated string, balances ...string) *model.Device {
	device := &model.Device{
		ID:        id,
		Name:      name,
		CreatedAt: mustTime(created),
		UpdatedAt: mustTime(updated),
		Places:    make([]model.Place, 0, len(balances)),
	}
	for i, b := range balances {
		device.Places = append(device.Places, model.Place{
			ID:       model.PlaceID(i + 1),
			DeviceID: id,
			Balance:  decimal.RequireFromString(b),
			Currency: "RUB",
		})
	}
	return device
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
