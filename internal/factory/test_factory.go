package factory

import (
	"context"
	"time"

	"github.com/mcoot/placeledger/internal/api/response"
	"github.com/mcoot/placeledger/internal/dependencies/mocks"
	"github.com/mcoot/placeledger/internal/storage/memory"
	"github.com/mcoot/placeledger/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates a seeded in-memory App with a mocked clock
func NewTestApp(style response.Style) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, mockClock, style, testutil.NopLogger())
	if err := app.Seed(context.Background()); err != nil {
		panic(err)
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
