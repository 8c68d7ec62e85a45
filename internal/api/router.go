package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/placeledger/internal/api/handler"
	"github.com/mcoot/placeledger/internal/api/middleware"
	"github.com/mcoot/placeledger/internal/api/response"
	"github.com/mcoot/placeledger/internal/ledger"
	"github.com/mcoot/placeledger/internal/metrics"
	httpmw "github.com/mcoot/placeledger/internal/middleware"
	"github.com/mcoot/placeledger/internal/services/devices"
)

// BasePath is where the ledger API is mounted
const BasePath = "/api/v1"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Devices       *devices.Service
	Metrics       *metrics.Metrics
	ResponseStyle response.Style
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	deviceHandler := handler.NewDeviceHandler(cfg.Devices, cfg.Metrics, cfg.ResponseStyle)

	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	loggingMiddleware := httpmw.Logging(cfg.Logger, cfg.Metrics.ObserveRequest)

	api := r.PathPrefix(BasePath).Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(httpmw.RequestID)
	api.Use(loggingMiddleware)

	api.HandleFunc(ledger.DevicesPath, deviceHandler.List).Methods(http.MethodGet)
	api.HandleFunc(ledger.DevicePath, deviceHandler.Get).Methods(http.MethodGet)
	api.HandleFunc(ledger.UpdatePlacePath, deviceHandler.UpdatePlace).Methods(http.MethodPost)

	api.HandleFunc(ledger.HealthPath, healthHandler).Methods(http.MethodGet)

	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
