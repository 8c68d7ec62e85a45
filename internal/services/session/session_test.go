package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/amount"
	"github.com/mcoot/placeledger/internal/services/devices"
	"github.com/mcoot/placeledger/internal/services/mutation"
	"github.com/mcoot/placeledger/internal/testutil"
)

// fakeLedger serves fixture devices and answers updates in the current ledger shape
type fakeLedger struct {
	devices map[model.DeviceID]*model.Device
	calls    int
	body     []byte
	onUpdate func()
}

func (f *fakeLedger) GetDevice(_ context.Context, id model.DeviceID) (*model.Device, error) {
	d, ok := f.devices[id]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	return d, nil
}

func (f *fakeLedger) UpdatePlace(_ context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal) ([]byte, error) {
	f.calls++
	if f.onUpdate != nil {
		f.onUpdate()
	}
	if f.body != nil {
		return f.body, nil
	}
	place := f.devices[deviceID].FindPlace(placeID)
	next := place.Balance.Add(delta)
	return fmt.Appendf(nil, `{"device_id":%d,"place":%d,"balances":%s,"currency":"RUB"}`, deviceID, placeID, next), nil
}

type SessionSuite struct {
	suite.Suite
	ledger  *fakeLedger
	session *Session
	ctx     context.Context
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ledger = &fakeLedger{devices: map[model.DeviceID]*model.Device{}}
	for _, d := range devices.FixtureDevices() {
		s.ledger.devices[d.ID] = d
	}
	s.session = New(s.ledger, mutation.New(s.ledger, testutil.NopLogger()), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *SessionSuite) TestOpenLoadsPlayers() {
	device, err := s.session.Open(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Device Alpha", device.Name)

	players := s.session.Players()
	s.Require().Len(players, 3)
	s.Equal("Alexander", players[0].Name)
}

func (s *SessionSuite) TestOpenUnknownDevice() {
	_, err := s.session.Open(s.ctx, 99)
	s.ErrorIs(err, model.ErrDeviceNotFound)
	s.Empty(s.session.Players())
}

func (s *SessionSuite) TestDepositUpdatesOnlyTargetPlace() {
	_, err := s.session.Open(s.ctx, 1)
	s.Require().NoError(err)

	update, err := s.session.Deposit(s.ctx, 2, "25,00")
	s.Require().NoError(err)
	s.True(update.NewBalance.Equal(testutil.Dec("875.75")))

	players := s.session.Players()
	s.True(players[0].Balance.Equal(testutil.Dec("1250.50")))
	s.True(players[1].Balance.Equal(testutil.Dec("875.75")))
	s.True(players[2].Balance.Equal(testutil.Dec("2100.00")))
}

func (s *SessionSuite) TestWithdrawOverdrawSkipsLedger() {
	_, err := s.session.Open(s.ctx, 4)
	s.Require().NoError(err)

	_, err = s.session.Withdraw(s.ctx, 2, "150.26")
	s.ErrorIs(err, model.ErrInsufficientFunds)
	s.Zero(s.ledger.calls)
	s.True(s.session.Players()[1].Balance.Equal(testutil.Dec("150.25")))
}

func (s *SessionSuite) TestInvalidAmountSkipsLedger() {
	_, err := s.session.Open(s.ctx, 1)
	s.Require().NoError(err)

	for _, raw := range []string{"", "abc", "0", "-5", "1.234"} {
		_, err := s.session.Deposit(s.ctx, 1, raw)
		s.ErrorIs(err, model.ErrValidation, raw)
	}
	_, err = s.session.Deposit(s.ctx, 1, "-5")
	s.ErrorIs(err, amount.ErrNegative)
	s.Zero(s.ledger.calls)
}

func (s *SessionSuite) TestMalformedResponseLeavesBalance() {
	_, err := s.session.Open(s.ctx, 1)
	s.Require().NoError(err)
	s.ledger.body = []byte(`{"ok":true}`)

	_, err = s.session.Deposit(s.ctx, 1, "10")
	s.ErrorIs(err, model.ErrMalformedResponse)
	s.True(s.session.Players()[0].Balance.Equal(testutil.Dec("1250.50")))
}

func (s *SessionSuite) TestSwitchingDeviceMidChangeKeepsNewDevice() {
	_, err := s.session.Open(s.ctx, 1)
	s.Require().NoError(err)
	s.ledger.onUpdate = func() {
		_, err := s.session.Open(s.ctx, 2)
		s.Require().NoError(err)
	}

	update, err := s.session.Deposit(s.ctx, 2, "25.00")
	s.Require().NoError(err)
	s.Equal(model.DeviceID(1), update.DeviceID)
	s.True(update.NewBalance.Equal(testutil.Dec("875.75")))

	players := s.session.Players()
	s.Require().Len(players, 2)
	s.Equal(model.DeviceID(2), players[1].DeviceID)
	s.True(players[1].Balance.Equal(testutil.Dec("1750.00")))
}

func (s *SessionSuite) TestChangeWithoutDevice() {
	_, err := s.session.Deposit(s.ctx, 1, "10")
	s.ErrorIs(err, ErrNoDevice)
}

func (s *SessionSuite) TestUnknownPlace() {
	_, err := s.session.Open(s.ctx, 3)
	s.Require().NoError(err)

	_, err = s.session.Deposit(s.ctx, 2, "10")
	s.ErrorIs(err, model.ErrPlaceNotFound)
}

func (s *SessionSuite) TestLeaveClearsPlayers() {
	_, err := s.session.Open(s.ctx, 1)
	s.Require().NoError(err)

	s.session.Leave()
	s.Empty(s.session.Players())
	_, err = s.session.Deposit(s.ctx, 1, "10")
	s.ErrorIs(err, ErrNoDevice)
}
