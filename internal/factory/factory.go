package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/placeledger/internal/api"
	"github.com/mcoot/placeledger/internal/api/response"
	"github.com/mcoot/placeledger/internal/dependencies/clock"
	"github.com/mcoot/placeledger/internal/metrics"
	"github.com/mcoot/placeledger/internal/services/devices"
	"github.com/mcoot/placeledger/internal/storage"
	"github.com/mcoot/placeledger/internal/storage/memory"
	redisstorage "github.com/mcoot/placeledger/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired simulator components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	Devices *devices.Service
	Metrics *metrics.Metrics

	logger *slog.Logger
	style  response.Style
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// ResponseStyle selects the balance update body shape
	// If empty, defaults to response.StyleBalances
	ResponseStyle string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	style, err := response.ParseStyle(cfg.ResponseStyle)
	if err != nil {
		return nil, err
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), style, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, style response.Style, logger *slog.Logger) *App {
	return &App{
		Storage: store,
		Clock:   clk,
		Devices: devices.New(store, clk, logger),
		Metrics: metrics.New(),
		logger:  logger,
		style:   style,
	}
}

// Seed loads the fixture devices into this app's storage
func (a *App) Seed(ctx context.Context) error {
	return a.Devices.Seed(ctx, devices.FixtureDevices())
}

// Handler builds the HTTP router for this app
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:        a.logger,
		Devices:       a.Devices,
		Metrics:       a.Metrics,
		ResponseStyle: a.style,
	})
}

// Close releases the storage connection, if the backend holds one
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
