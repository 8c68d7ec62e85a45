package testutil

import (
	"github.com/shopspring/decimal"
)

// Dec parses a decimal literal, panicking on malformed test input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
