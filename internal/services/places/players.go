package places

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
)

// DefaultCurrency is shown when the ledger leaves a place's currency empty
const DefaultCurrency = "RUB"

// namesPerDevice spaces each device's slice of the roster
const namesPerDevice = 10

// roster names players on devices that only report place numbers
var roster = []string{
	"Alexander", "Maria", "Dmitry", "Anna", "Ivan", "Elena", "Sergey", "Olga",
	"Andrey", "Tatiana", "Mikhail", "Natalia", "Vladimir", "Ekaterina", "Alexey", "Yulia",
	"Pavel", "Irina", "Nikolay", "Svetlana", "Roman", "Marina", "Artem", "Anastasia",
	"Maxim", "Victoria", "Denis", "Kristina", "Anton", "Alina", "Igor", "Daria",
	"Oleg", "Polina", "Yury", "Valeria", "Stanislav", "Sofia", "Vadim", "Angela",
	"Grigory", "Evgenia", "Boris", "Lyudmila", "Konstantin", "Galina", "Vasily", "Larisa",
}

// PlayersFromDevice maps a device's places to the players shown to the operator.
// Places keep any name the ledger supplied; unnamed places get a roster name.
func PlayersFromDevice(device *model.Device) []model.Place {
	players := make([]model.Place, 0, len(device.Places))
	for i, p := range device.Places {
		player := p
		if player.DeviceID == 0 {
			player.DeviceID = device.ID
		}
		if player.Name == "" {
			player.Name = PlayerName(device.ID, i, p.ID)
		}
		players = append(players, player)
	}
	return players
}

// PlayerName picks the roster name for the index-th place of a device
func PlayerName(deviceID model.DeviceID, index int, placeID model.PlaceID) string {
	offset := (int64(deviceID)-1)*namesPerDevice + int64(index)
	if offset < 0 {
		return fmt.Sprintf("Player %d-%d", deviceID, placeID)
	}
	return roster[offset%int64(len(roster))]
}

// FormatBalance renders a balance with two fixed decimals and its currency
func FormatBalance(balance decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return balance.StringFixed(2) + " " + currency
}
