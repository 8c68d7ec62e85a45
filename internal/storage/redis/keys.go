package redis

import (
	"fmt"

	"github.com/mcoot/placeledger/internal/model"
)

// Key prefix for all ledger data
const keyPrefix = "placeledger"

// Hash fields of a device key
const (
	fieldMeta      = "meta"
	fieldUpdatedAt = "updated_at"
)

// deviceKey returns the hash holding a device's metadata and update stamp
func deviceKey(id model.DeviceID) string {
	return fmt.Sprintf("%s:device:%d", keyPrefix, id)
}

// balancesKey returns the hash of place number -> balance in minor units
func balancesKey(id model.DeviceID) string {
	return fmt.Sprintf("%s:balances:%d", keyPrefix, id)
}

// devicesIndexKey returns the SET of known device ids
func devicesIndexKey() string {
	return fmt.Sprintf("%s:idx:devices", keyPrefix)
}
