// Package amount turns operator input into validated monetary amounts.
package amount

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
)

// MaxFractionDigits is the precision of every amount the ledger accepts
const MaxFractionDigits = 2

var (
	// canonicalPattern is the shape of a submit-valid amount once ',' became '.'
	canonicalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	// partialPattern accepts anything an operator may have typed so far
	partialPattern = regexp.MustCompile(`^\d*([.,]\d*)?$`)
)

// ValidationError is a rejected amount with a stable, displayable reason
type ValidationError struct {
	Reason string
	parent error
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Unwrap chains a narrower rejection to its broader one, and every rejection to model.ErrValidation
func (e *ValidationError) Unwrap() error {
	if e.parent != nil {
		return e.parent
	}
	return model.ErrValidation
}

// Rejection reasons
var (
	ErrAmountRequired = &ValidationError{Reason: "amount required"}
	ErrNotANumber     = &ValidationError{Reason: "not a number"}
	ErrNotPositive    = &ValidationError{Reason: "must be positive"}
	ErrNegative       = &ValidationError{Reason: "negative amount not allowed", parent: ErrNotPositive}
	ErrTooPrecise     = &ValidationError{Reason: "max 2 decimal places"}
)

// ValidatedAmount is a strictly positive amount with at most two fractional digits
type ValidatedAmount struct {
	value decimal.Decimal
	text  string
}

// Decimal returns the amount's value
func (a ValidatedAmount) Decimal() decimal.Decimal {
	return a.value
}

// String returns the canonical '.'-separated form
func (a ValidatedAmount) String() string {
	return a.text
}

// IsZero reports whether a is the zero ValidatedAmount (never returned by Validate)
func (a ValidatedAmount) IsZero() bool {
	return a.text == ""
}

// Normalize rewrites a ',' decimal separator to '.'
func Normalize(raw string) string {
	return strings.ReplaceAll(raw, ",", ".")
}

// IsPartial reports whether raw is acceptable as in-progress input: digits with at most one
// separator. "12." is partial-valid but not submit-valid.
func IsPartial(raw string) bool {
	return partialPattern.MatchString(raw)
}

// Validate checks submitted input and returns the amount it denotes
func Validate(raw string) (ValidatedAmount, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ValidatedAmount{}, ErrAmountRequired
	}
	s = Normalize(s)

	value, err := decimal.NewFromString(s)
	if err != nil {
		return ValidatedAmount{}, ErrNotANumber
	}

	switch value.Sign() {
	case -1:
		return ValidatedAmount{}, ErrNegative
	case 0:
		return ValidatedAmount{}, ErrNotPositive
	}

	if !canonicalPattern.MatchString(s) {
		return ValidatedAmount{}, ErrNotANumber
	}

	if fractionDigits(s) > MaxFractionDigits {
		return ValidatedAmount{}, ErrTooPrecise
	}

	return ValidatedAmount{value: value, text: s}, nil
}

// MustParse is Validate for literals known to be valid; it panics otherwise
func MustParse(raw string) ValidatedAmount {
	a, err := Validate(raw)
	if err != nil {
		panic("amount: " + raw + ": " + err.Error())
	}
	return a
}

func fractionDigits(s string) int {
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return len(s) - idx - 1
}
