package response

import (
	"fmt"

	"github.com/mcoot/placeledger/internal/ledger"
	"github.com/mcoot/placeledger/internal/model"
)

// Style selects the body shape of a successful balance update. Ledger versions in the
// wild disagree on field names, and clients have to cope with all of them.
type Style string

const (
	// StyleBalances is the current ledger: the full place record
	StyleBalances Style = "balances"
	// StyleNewBalance is the legacy mock: {"success":true,"place":N,"newBalance":X}
	StyleNewBalance Style = "newBalance"
	// StyleBalance reports {"place":N,"balance":X,"currency":C}
	StyleBalance Style = "balance"
	// StylePlaceID is the oldest shape: {"place_id":N,"newBalance":X}
	StylePlaceID Style = "place_id"
)

// Styles lists every supported style
var Styles = []Style{StyleBalances, StyleNewBalance, StyleBalance, StylePlaceID}

// ParseStyle parses a style name; empty means StyleBalances
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleBalances, nil
	}
	for _, style := range Styles {
		if string(style) == s {
			return style, nil
		}
	}
	return "", fmt.Errorf("unknown response style %q", s)
}

// UpdateBody builds the success body for an updated place in the given style
func UpdateBody(style Style, place *model.Place) any {
	balance := ledger.NewNumber(place.Balance)

	switch style {
	case StyleNewBalance:
		return map[string]any{
			"success":    true,
			"place":      int64(place.ID),
			"newBalance": balance,
		}
	case StyleBalance:
		return map[string]any{
			"place":    int64(place.ID),
			"balance":  balance,
			"currency": place.Currency,
		}
	case StylePlaceID:
		return map[string]any{
			"place_id":   int64(place.ID),
			"newBalance": balance,
		}
	default:
		return ledger.PlaceDTO{
			DeviceID: int64(place.DeviceID),
			Place:    int64(place.ID),
			Balances: balance,
			Currency: place.Currency,
		}
	}
}
