package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/placeledger/internal/api/apierr"
	"github.com/mcoot/placeledger/internal/api/response"
	"github.com/mcoot/placeledger/internal/ledger"
	"github.com/mcoot/placeledger/internal/metrics"
	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/devices"
)

// DeviceHandler handles device and balance endpoints
type DeviceHandler struct {
	devices *devices.Service
	metrics *metrics.Metrics
	style   response.Style
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(devices *devices.Service, metrics *metrics.Metrics, style response.Style) *DeviceHandler {
	return &DeviceHandler{
		devices: devices,
		metrics: metrics,
		style:   style,
	}
}

// List handles GET /a/devices/
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.devices.ListDevices(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	dtos := make([]ledger.DeviceDTO, 0, len(list))
	for _, d := range list {
		dtos = append(dtos, ledger.DeviceFromModel(d))
	}
	response.JSON(w, http.StatusOK, dtos)
}

// Get handles GET /a/devices/{deviceId}/
func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	deviceID, err := pathID(r, ledger.DeviceIDParam)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	device, err := h.devices.GetDevice(r.Context(), model.DeviceID(deviceID))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, ledger.DeviceFromModel(device))
}

// UpdatePlace handles POST /a/devices/{deviceId}/place/{placeId}/update
func (h *DeviceHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	deviceID, err := pathID(r, ledger.DeviceIDParam)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	placeID, err := pathID(r, ledger.PlaceIDParam)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req ledger.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}

	place, err := h.devices.UpdateBalance(r.Context(), model.DeviceID(deviceID), model.PlaceID(placeID), req.Delta.Decimal)
	if err != nil {
		h.metrics.BalanceUpdate(metrics.OutcomeRejected)
		apierr.WriteError(w, err)
		return
	}

	h.metrics.BalanceUpdate(metrics.OutcomeApplied)
	response.JSON(w, http.StatusOK, response.UpdateBody(h.style, place))
}

func pathID(r *http.Request, param string) (int64, error) {
	raw := mux.Vars(r)[param]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.NewInvalidRequestError("Invalid " + param)
	}
	return id, nil
}
