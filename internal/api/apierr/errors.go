package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/placeledger/internal/ledger"
	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/devices"
)

// httpError combines an HTTP status code with the ledger error body
type httpError struct {
	status int
	body   ledger.ErrorBody
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.body.Err
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.body)
}

// Status reports the status code WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrDeviceNotFound):
		return newHTTPError(http.StatusNotFound, ledger.CodeDeviceNotFound, "Device not found")
	case errors.Is(err, model.ErrPlaceNotFound):
		return newHTTPError(http.StatusNotFound, ledger.CodePlaceNotFound, "Place not found")
	case errors.Is(err, model.ErrInsufficientFunds):
		return newHTTPError(http.StatusConflict, ledger.CodeInsufficient, "Insufficient funds")
	case errors.Is(err, model.ErrInvalidDelta):
		return newHTTPError(http.StatusBadRequest, ledger.CodeInvalidDelta, "Delta must not be zero")
	case errors.Is(err, devices.ErrDeltaTooPrecise):
		return newHTTPError(http.StatusBadRequest, ledger.CodeInvalidDelta, "Delta has more than 2 decimal places")
	default:
		return newHTTPError(http.StatusInternalServerError, ledger.CodeInternalError, "Internal server error")
	}
}

func newHTTPError(status int, code, message string) *httpError {
	return &httpError{status: status, body: ledger.ErrorBody{Err: message, Code: code}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return newHTTPError(http.StatusBadRequest, ledger.CodeInvalidRequest, message)
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return newHTTPError(http.StatusInternalServerError, ledger.CodeInternalError, "Internal server error")
}
