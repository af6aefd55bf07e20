package services

import (
	"context"
	"testing"
	"time"

	"auctionhouse/internal/domain"
	"auctionhouse/internal/infrastructure/memory"
	"auctionhouse/pkg/clock"
	"auctionhouse/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against the in-memory store with a fake clock.
type testEnv struct {
	store      *memory.Store
	events     *memory.EventLog
	clock      *clock.Fake
	ledger     *Ledger
	admission  *AdmissionEngine
	settlement *Settlement
}

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, allowSelfBid bool) *testEnv {
	t.Helper()

	store := memory.NewStore()
	events := memory.NewEventLog()
	clk := clock.NewFake(testStart)
	locker := NewLocalAuctionLocker()
	log := logger.NewNop()

	return &testEnv{
		store:      store,
		events:     events,
		clock:      clk,
		ledger:     NewLedger(store, locker, clk, log),
		admission:  NewAdmissionEngine(store, store, locker, events, clk, allowSelfBid, log),
		settlement: NewSettlement(store, store, clk, log),
	}
}

func (env *testEnv) createAuction(t *testing.T, ownerID string, startingBid int64, duration time.Duration) *domain.AuctionItem {
	t.Helper()

	item, err := env.ledger.CreateAuction(context.Background(), CreateAuctionParams{
		OwnerID:     ownerID,
		Title:       "Walnut writing desk",
		Description: "Mid-century desk, lightly used",
		StartingBid: decimal.NewFromInt(startingBid),
		EndTime:     env.clock.Now().Add(duration),
	})
	require.NoError(t, err)
	return item
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
