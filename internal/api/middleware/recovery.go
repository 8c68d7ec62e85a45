package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/placeledger/internal/api/apierr"
	"github.com/mcoot/placeledger/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// Returns the ledger's JSON error body on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
