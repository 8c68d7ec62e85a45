package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/storage"
)

// minorUnits is the number of decimal places balances are stored with
const minorUnits = 2

// Script error replies
const (
	replyDeviceNotFound    = "DEVICE_NOT_FOUND"
	replyPlaceNotFound     = "PLACE_NOT_FOUND"
	replyInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// applyDeltaScript checks and applies a balance change in one step.
// KEYS: device hash, balances hash. ARGV: place, delta in minor units, updated_at.
var applyDeltaScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return redis.error_reply('DEVICE_NOT_FOUND')
end
local current = redis.call('HGET', KEYS[2], ARGV[1])
if not current then
	return redis.error_reply('PLACE_NOT_FOUND')
end
if tonumber(current) + tonumber(ARGV[2]) < 0 then
	return redis.error_reply('INSUFFICIENT_FUNDS')
end
local balance = redis.call('HINCRBY', KEYS[2], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[1], 'updated_at', ARGV[3])
return balance
`)

// Storage is a Redis-backed implementation of the storage interface.
// Balances live in their own hash as integer minor units so a delta is a single HINCRBY.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// storedDevice is the device metadata kept under fieldMeta; balances are stored apart
type storedDevice struct {
	ID        model.DeviceID `json:"id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	Places    []storedPlace  `json:"places"`
}

type storedPlace struct {
	ID       model.PlaceID `json:"id"`
	Name     string        `json:"name,omitempty"`
	Currency string        `json:"currency"`
}

func (s *Storage) SaveDevice(ctx context.Context, device *model.Device) error {
	meta := storedDevice{
		ID:        device.ID,
		Name:      device.Name,
		CreatedAt: device.CreatedAt,
		Places:    make([]storedPlace, 0, len(device.Places)),
	}
	balances := make(map[string]any, len(device.Places))
	for _, p := range device.Places {
		minor, err := toMinor(p.Balance)
		if err != nil {
			return fmt.Errorf("place %d: %w", p.ID, err)
		}
		meta.Places = append(meta.Places, storedPlace{ID: p.ID, Name: p.Name, Currency: p.Currency})
		balances[placeField(p.ID)] = minor
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, deviceKey(device.ID),
			fieldMeta, data,
			fieldUpdatedAt, device.UpdatedAt.Format(time.RFC3339Nano),
		)
		pipe.Del(ctx, balancesKey(device.ID))
		if len(balances) > 0 {
			pipe.HSet(ctx, balancesKey(device.ID), balances)
		}
		pipe.SAdd(ctx, devicesIndexKey(), int64(device.ID))
		return nil
	})
	return err
}

func (s *Storage) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	fields, err := s.client.HGetAll(ctx, deviceKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrDeviceNotFound
	}

	var meta storedDevice
	if err := json.Unmarshal([]byte(fields[fieldMeta]), &meta); err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, err
	}

	balances, err := s.client.HGetAll(ctx, balancesKey(id)).Result()
	if err != nil {
		return nil, err
	}

	device := &model.Device{
		ID:        meta.ID,
		Name:      meta.Name,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: updatedAt,
		Places:    make([]model.Place, 0, len(meta.Places)),
	}
	for _, p := range meta.Places {
		minor, err := strconv.ParseInt(balances[placeField(p.ID)], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("place %d balance: %w", p.ID, err)
		}
		device.Places = append(device.Places, model.Place{
			ID:       p.ID,
			DeviceID: meta.ID,
			Name:     p.Name,
			Balance:  fromMinor(minor),
			Currency: p.Currency,
		})
	}
	return device, nil
}

func (s *Storage) ListDevices(ctx context.Context) ([]*model.Device, error) {
	members, err := s.client.SMembers(ctx, devicesIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]model.DeviceID, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("device index entry %q: %w", m, err)
		}
		ids = append(ids, model.DeviceID(id))
	}
	slices.Sort(ids)

	devices := make([]*model.Device, 0, len(ids))
	for _, id := range ids {
		device, err := s.GetDevice(ctx, id)
		if errors.Is(err, model.ErrDeviceNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func (s *Storage) ApplyDelta(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal, at time.Time) (*model.Place, error) {
	minorDelta, err := toMinor(delta)
	if err != nil {
		return nil, err
	}

	keys := []string{deviceKey(deviceID), balancesKey(deviceID)}
	balance, err := applyDeltaScript.Run(ctx, s.client, keys,
		placeField(placeID), minorDelta, at.Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return nil, scriptError(err)
	}

	device, err := s.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	place := device.FindPlace(placeID)
	if place == nil {
		return nil, model.ErrPlaceNotFound
	}
	// report the balance this call produced, not whatever a later call left behind
	place.Balance = fromMinor(balance)
	return place, nil
}

func scriptError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, replyDeviceNotFound):
		return model.ErrDeviceNotFound
	case strings.Contains(msg, replyPlaceNotFound):
		return model.ErrPlaceNotFound
	case strings.Contains(msg, replyInsufficientFunds):
		return model.ErrInsufficientFunds
	default:
		return err
	}
}

func placeField(id model.PlaceID) string {
	return strconv.FormatInt(int64(id), 10)
}

func toMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(minorUnits)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d, minorUnits)
	}
	return shifted.IntPart(), nil
}

func fromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnits)
}
