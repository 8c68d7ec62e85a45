// Package ledger is the HTTP client for the remote balance ledger.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
)

// ErrNetwork marks a request that never produced an HTTP response
var ErrNetwork = errors.New("ledger unreachable")

// StatusError is a non-2xx ledger response
type StatusError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Config holds ledger client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns the production ledger address
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://dev-space.su/api/v1",
		Timeout: 30 * time.Second,
	}
}

// Client talks JSON to the ledger. Requests are never retried: a balance update
// carries no idempotency key, so a repeat could apply twice.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates a ledger client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{logger})

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// ListDevices fetches every device with its places
func (c *Client) ListDevices(ctx context.Context) ([]*model.Device, error) {
	body, err := c.do(ctx, http.MethodGet, DevicesPath, nil, nil)
	if err != nil {
		return nil, err
	}

	var dtos []DeviceDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse device list: %w", err)
	}

	devices := make([]*model.Device, 0, len(dtos))
	for _, dto := range dtos {
		devices = append(devices, dto.ToModel())
	}
	return devices, nil
}

// GetDevice fetches one device with its places
func (c *Client) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	params := map[string]string{DeviceIDParam: formatID(int64(id))}

	body, err := c.do(ctx, http.MethodGet, DevicePath, params, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", model.ErrDeviceNotFound, se)
		}
		return nil, err
	}

	var dto DeviceDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse device: %w", err)
	}
	return dto.ToModel(), nil
}

// UpdatePlace posts a signed delta for one place and returns the raw 2xx body.
// Interpreting the body is left to the caller because its shape varies by ledger version.
func (c *Client) UpdatePlace(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal) ([]byte, error) {
	params := map[string]string{
		DeviceIDParam: formatID(int64(deviceID)),
		PlaceIDParam:  formatID(int64(placeID)),
	}
	return c.do(ctx, http.MethodPost, UpdatePlacePath, params, UpdateRequest{Delta: NewNumber(delta)})
}

// Health checks that the ledger answers its health endpoint
func (c *Client) Health(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, HealthPath, nil, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse health: %w", err)
	}
	return result.Status, nil
}

// do performs one request and classifies the outcome
func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body any) ([]byte, error) {
	req := c.http.R().SetContext(ctx).SetPathParams(params)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("ledger request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	c.logger.Debug("ledger request",
		slog.String("method", method),
		slog.String("url", resp.Request.URL),
		slog.Int("status", resp.StatusCode()),
		slog.Duration("duration", time.Since(start)),
	)

	if !resp.IsSuccess() {
		return nil, statusError(resp.StatusCode(), resp.Body())
	}
	return resp.Body(), nil
}

// statusError builds the error for a non-2xx response. The message prefers the
// ledger's err field, then message, then the raw body text.
func statusError(status int, body []byte) *StatusError {
	se := &StatusError{StatusCode: status}

	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		se.Code = eb.Code
		switch {
		case eb.Err != "":
			se.Message = eb.Err
		case eb.Message != "":
			se.Message = eb.Message
		}
	}
	if se.Message == "" {
		se.Message = strings.TrimSpace(string(body))
	}
	if se.Message == "" {
		se.Message = fmt.Sprintf("ledger returned status %d %s", status, http.StatusText(status))
	}
	return se
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// restyLogger routes resty's internal warnings into slog
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
