package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/placeledger/internal/api/response"
	"github.com/mcoot/placeledger/internal/factory"
	"github.com/mcoot/placeledger/internal/ledger"
)

// testServer creates a test server backed by a seeded in-memory ledger
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, style response.Style) *testServer {
	t.Helper()

	app := factory.NewTestApp(style)
	return &testServer{
		handler: app.Handler(),
		app:     app,
	}
}

func (ts *testServer) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ledger.ErrorBody {
	t.Helper()

	var body ledger.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestListDevices(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodGet, "/api/v1/a/devices/", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var devices []ledger.DeviceDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &devices))
	require.Len(t, devices, 4)
	assert.Equal(t, "Device Alpha", devices[0].Name)
	assert.Equal(t, int64(2), devices[0].Places[1].Place)
	assert.Equal(t, "850.75", devices[0].Places[1].Balances.StringFixed(2))
}

func TestBalancesAreBareNumbers(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodGet, "/api/v1/a/devices/3/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"balances":3200.5`)
}

func TestGetDevice(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodGet, "/api/v1/a/devices/4/", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var device ledger.DeviceDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &device))
	assert.Equal(t, int64(4), device.ID)
	assert.Len(t, device.Places, 3)
}

func TestGetDeviceErrors(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodGet, "/api/v1/a/devices/99/", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ledger.CodeDeviceNotFound, decodeError(t, rr).Code)

	rr = ts.request(http.MethodGet, "/api/v1/a/devices/abc/", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ledger.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestUpdatePlace(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodPost, "/api/v1/a/devices/1/place/2/update", `{"delta":25.00}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"device_id":1,"place":2,"balances":875.75,"currency":"RUB"}`, rr.Body.String())
}

func TestUpdatePlaceLegacyStyle(t *testing.T) {
	ts := newTestServer(t, response.StyleNewBalance)

	rr := ts.request(http.MethodPost, "/api/v1/a/devices/1/place/2/update", `{"delta":-50.75}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"place":2,"newBalance":800}`, rr.Body.String())
}

func TestUpdatePlaceRejections(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"zero delta", "/api/v1/a/devices/1/place/1/update", `{"delta":0}`, http.StatusBadRequest, ledger.CodeInvalidDelta},
		{"missing delta", "/api/v1/a/devices/1/place/1/update", `{}`, http.StatusBadRequest, ledger.CodeInvalidDelta},
		{"too precise", "/api/v1/a/devices/1/place/1/update", `{"delta":0.001}`, http.StatusBadRequest, ledger.CodeInvalidDelta},
		{"overdraw", "/api/v1/a/devices/2/place/1/update", `{"delta":-500.26}`, http.StatusConflict, ledger.CodeInsufficient},
		{"unknown place", "/api/v1/a/devices/3/place/2/update", `{"delta":1}`, http.StatusNotFound, ledger.CodePlaceNotFound},
		{"unknown device", "/api/v1/a/devices/9/place/1/update", `{"delta":1}`, http.StatusNotFound, ledger.CodeDeviceNotFound},
		{"bad body", "/api/v1/a/devices/1/place/1/update", `delta=1`, http.StatusBadRequest, ledger.CodeInvalidRequest},
		{"bad place id", "/api/v1/a/devices/1/place/0/update", `{"delta":1}`, http.StatusBadRequest, ledger.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, response.StyleBalances)

			rr := ts.request(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code)

			body := decodeError(t, rr)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Err)
		})
	}
}

func TestOverdrawLeavesBalance(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodPost, "/api/v1/a/devices/2/place/1/update", `{"delta":-1000}`)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/a/devices/2/", "")
	assert.Contains(t, rr.Body.String(), `"balances":500.25`)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	rr := ts.request(http.MethodGet, "/api/v1/a/devices/1/place/1/update", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsRecordUpdates(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	ts.request(http.MethodPost, "/api/v1/a/devices/1/place/1/update", `{"delta":5}`)
	ts.request(http.MethodPost, "/api/v1/a/devices/1/place/1/update", `{"delta":0}`)

	rr := ts.request(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `ledger_sim_balance_updates_total{outcome="applied"} 1`)
	assert.Contains(t, body, `ledger_sim_balance_updates_total{outcome="rejected"} 1`)
	assert.True(t, strings.Contains(body, `route="/api/v1/a/devices/{deviceId}/place/{placeId}/update"`))
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t, response.StyleBalances)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "op-42")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "op-42", rr.Header().Get("X-Request-ID"))
}
