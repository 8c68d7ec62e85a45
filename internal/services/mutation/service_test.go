package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/placeledger/internal/ledger"
	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/amount"
	"github.com/mcoot/placeledger/internal/testutil"
)

// fakeLedger records calls and replays a canned response
type fakeLedger struct {
	mu     sync.Mutex
	calls  []model.MutationRequest
	body   string
	err    error
	onCall func()
}

func (f *fakeLedger) UpdatePlace(ctx context.Context, deviceID model.DeviceID, placeID model.PlaceID, delta decimal.Decimal) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model.MutationRequest{DeviceID: deviceID, PlaceID: placeID, Delta: delta})
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func (f *fakeLedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type ServiceSuite struct {
	suite.Suite
	ledger  *fakeLedger
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ledger = &fakeLedger{}
	s.service = New(s.ledger, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) mutate(delta, balance string) (*model.BalanceUpdate, error) {
	return s.service.Mutate(s.ctx, model.MutationRequest{
		DeviceID: 1,
		PlaceID:  2,
		Delta:    testutil.Dec(delta),
	}, testutil.Dec(balance))
}

func (s *ServiceSuite) requireFailure(err error, kind model.FailureKind) *model.MutationError {
	var merr *model.MutationError
	s.Require().ErrorAs(err, &merr)
	s.Equal(kind, merr.Kind)
	s.NotEmpty(merr.Reason)
	return merr
}

// Local preconditions

func (s *ServiceSuite) TestZeroDeltaFailsWithoutNetwork() {
	_, err := s.mutate("0", "50")

	s.ErrorIs(err, model.ErrInvalidDelta)
	s.requireFailure(err, model.FailureInvalidDelta)
	s.Equal(0, s.ledger.callCount())
}

func (s *ServiceSuite) TestOverdrawFailsWithoutNetwork() {
	_, err := s.mutate("-100", "50")

	s.ErrorIs(err, model.ErrInsufficientFunds)
	s.Equal(0, s.ledger.callCount())
}

func (s *ServiceSuite) TestWithdrawWholeBalanceIsAllowed() {
	s.ledger.body = `{"place": 2, "balances": 0}`

	update, err := s.mutate("-50", "50")

	s.Require().NoError(err)
	s.True(update.NewBalance.IsZero())
	s.Equal(1, s.ledger.callCount())
}

func (s *ServiceSuite) TestDepositIgnoresBalance() {
	s.ledger.body = `{"place": 2, "balances": 100}`

	_, err := s.mutate("100", "0")

	s.Require().NoError(err)
	s.Equal(1, s.ledger.callCount())
}

// Success

func (s *ServiceSuite) TestDepositSendsPositiveDelta() {
	s.ledger.body = `{"device_id": 1, "place": 2, "balances": 875.75, "currency": "RUB"}`

	update, err := s.service.Deposit(s.ctx, 1, 2, amount.MustParse("25.00"), testutil.Dec("850.75"))

	s.Require().NoError(err)
	s.Require().Len(s.ledger.calls, 1)
	s.True(s.ledger.calls[0].Delta.Equal(testutil.Dec("25")))
	s.Equal(model.PlaceID(2), update.PlaceID)
	s.Equal(model.DeviceID(1), update.DeviceID)
	s.True(update.NewBalance.Equal(testutil.Dec("875.75")))
	s.Equal("RUB", update.Currency)
}

func (s *ServiceSuite) TestWithdrawSendsNegativeDelta() {
	s.ledger.body = `{"place_id": 2, "newBalance": 800.75}`

	update, err := s.service.Withdraw(s.ctx, 1, 2, amount.MustParse("50"), testutil.Dec("850.75"))

	s.Require().NoError(err)
	s.True(s.ledger.calls[0].Delta.Equal(testutil.Dec("-50")))
	s.True(update.NewBalance.Equal(testutil.Dec("800.75")))
}

func (s *ServiceSuite) TestWithdrawOverBalanceFailsLocally() {
	_, err := s.service.Withdraw(s.ctx, 1, 2, amount.MustParse("100"), testutil.Dec("50"))

	s.ErrorIs(err, model.ErrInsufficientFunds)
	s.Equal(0, s.ledger.callCount())
}

// Ledger failures

func (s *ServiceSuite) TestNetworkError() {
	s.ledger.err = fmt.Errorf("%w: %w", ledger.ErrNetwork, errors.New("dial tcp: connection refused"))

	_, err := s.mutate("10", "50")

	merr := s.requireFailure(err, model.FailureNetwork)
	s.ErrorIs(err, model.ErrNetwork)
	s.NotContains(merr.Reason, "dial tcp")
	s.Equal(1, s.ledger.callCount(), "network failures are not retried")
}

func (s *ServiceSuite) TestDeadlineIsNetworkError() {
	s.ledger.err = context.DeadlineExceeded

	_, err := s.mutate("10", "50")

	s.ErrorIs(err, model.ErrNetwork)
}

func (s *ServiceSuite) TestWrappedDeadlineIsInterrupted() {
	s.ledger.err = fmt.Errorf("%w: %w", ledger.ErrNetwork, context.DeadlineExceeded)

	_, err := s.mutate("10", "50")

	merr := s.requireFailure(err, model.FailureNetwork)
	s.Equal("ledger request was interrupted", merr.Reason)
}

func (s *ServiceSuite) TestServerErrorKeepsMessage() {
	s.ledger.err = &ledger.StatusError{StatusCode: 500, Message: "database unavailable"}

	_, err := s.mutate("10", "50")

	merr := s.requireFailure(err, model.FailureServer)
	s.Equal("database unavailable", merr.Reason)
	s.ErrorIs(err, model.ErrServer)
}

func (s *ServiceSuite) TestRemoteInsufficientFunds() {
	s.ledger.err = &ledger.StatusError{StatusCode: 409, Message: "insufficient funds", Code: ledger.CodeInsufficient}

	_, err := s.mutate("-10", "50")

	s.ErrorIs(err, model.ErrInsufficientFunds)
}

func (s *ServiceSuite) TestBodyLevelErrorOnSuccessStatus() {
	s.ledger.body = `{"err": "place is locked"}`

	_, err := s.mutate("10", "50")

	merr := s.requireFailure(err, model.FailureServer)
	s.Equal("place is locked", merr.Reason)
}

func (s *ServiceSuite) TestBodyLevelInsufficientFunds() {
	s.ledger.body = `{"err": "not enough money", "code": "INSUFFICIENT_FUNDS"}`

	_, err := s.mutate("-10", "50")

	s.ErrorIs(err, model.ErrInsufficientFunds)
}

func (s *ServiceSuite) TestBodyErrorWinsOverBalance() {
	s.ledger.body = `{"err": "rejected", "place": 2, "balances": 10}`

	_, err := s.mutate("10", "50")

	s.ErrorIs(err, model.ErrServer)
}

func (s *ServiceSuite) TestUnrecognizedBody() {
	for _, body := range []string{`{"ok": true}`, `{"balance": 10}`, `[]`, ``, `<html>`} {
		s.ledger.body = body

		_, err := s.mutate("10", "50")

		s.ErrorIs(err, model.ErrMalformedResponse, body)
	}
}

// Concurrency

func (s *ServiceSuite) TestConcurrentWithdrawalsBothPassLocalCheck() {
	s.ledger.body = `{"place": 2, "balances": 10}`

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.mutate("-40", "50")
		}(i)
	}
	wg.Wait()

	s.NoError(errs[0])
	s.NoError(errs[1])
	s.Equal(2, s.ledger.callCount())
}

func (s *ServiceSuite) TestPlaceSerialization() {
	s.service = New(s.ledger, testutil.NopLogger(), WithPlaceSerialization())
	s.ledger.body = `{"place": 2, "balances": 10}`

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	s.ledger.onCall = func() {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.mutate("1", "0")
		}()
	}
	wg.Wait()

	s.Equal(1, maxInFlight)
	s.Equal(5, s.ledger.callCount())
	s.Equal(0, s.service.locks.size())
}
