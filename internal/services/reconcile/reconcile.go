// Package reconcile reads ledger mutation responses regardless of which field-naming
// convention the ledger used.
package reconcile

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
)

// Field names in lookup priority order. The first key present in the response wins,
// even when its value is zero.
var (
	PlaceIDFields = []string{"place", "place_id"}
	BalanceFields = []string{"balances", "newBalance", "balance"}
)

// CurrencyField carries the place's currency when the ledger reports it
const CurrencyField = "currency"

// Reconcile extracts the affected place and its new balance from a response body.
// It returns nil when the body is not a JSON object, when no place or balance key is
// present, or when the winning key holds a value that is not a number.
func Reconcile(body []byte) *model.Reconciled {
	fields, ok := decodeObject(body)
	if !ok {
		return nil
	}

	placeRaw, ok := lookup(fields, PlaceIDFields)
	if !ok {
		return nil
	}
	placeID, ok := parsePlaceID(placeRaw)
	if !ok {
		return nil
	}

	balanceRaw, ok := lookup(fields, BalanceFields)
	if !ok {
		return nil
	}
	balance, ok := parseDecimal(balanceRaw)
	if !ok {
		return nil
	}

	return &model.Reconciled{
		PlaceID:    placeID,
		NewBalance: balance,
		Currency:   parseCurrency(fields[CurrencyField]),
	}
}

// ErrorMessage returns the body-level error a ledger reports even on a 2xx status, if any
func ErrorMessage(body []byte) (string, bool) {
	fields, ok := decodeObject(body)
	if !ok {
		return "", false
	}
	raw, ok := fields["err"]
	if !ok || isNull(raw) || string(bytes.TrimSpace(raw)) == "false" {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		// non-string error payloads are still errors; show them as sent
		return string(bytes.TrimSpace(raw)), true
	}
	return msg, msg != ""
}

// lookup returns the value of the first key in keys that is present in fields
func lookup(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, key := range keys {
		if raw, ok := fields[key]; ok {
			return raw, true
		}
	}
	return nil, false
}

func decodeObject(body []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func parsePlaceID(raw json.RawMessage) (model.PlaceID, bool) {
	d, ok := parseDecimal(raw)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return model.PlaceID(d.IntPart()), true
}

// parseDecimal accepts a JSON number or a string holding one
func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	if isNull(raw) {
		return decimal.Decimal{}, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseCurrency(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var currency string
	if err := json.Unmarshal(raw, &currency); err != nil {
		return ""
	}
	return currency
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
