package services

import (
	"context"
	"testing"
	"time"

	"auctionhouse/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestSettlement_Winner(t *testing.T) {
	env := newTestEnv(t, false)
	item := env.createAuction(t, "user1", 100, time.Hour)
	ctx := context.Background()

	_, err := env.settlement.Winner(ctx, "auction-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.settlement.Winner(ctx, item.ID)
	require.ErrorIs(t, err, domain.ErrAuctionNotEnded)

	_, err = env.admission.PlaceBid(ctx, item.ID, "user2", dec(150))
	require.NoError(t, err)
	bidD, err := env.admission.PlaceBid(ctx, item.ID, "user3", dec(151))
	require.NoError(t, err)

	// Still open: the eventual winner is not announced early.
	_, err = env.settlement.Winner(ctx, item.ID)
	require.ErrorIs(t, err, domain.ErrAuctionNotEnded)

	env.clock.Advance(time.Hour + time.Second)

	winning, err := env.settlement.Winner(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, bidD.ID, winning.ID)
	require.Equal(t, "user3", winning.BidderID)
	require.True(t, winning.Amount.Equal(dec(151)))

	// Idempotent: repeated queries return the same winner.
	again, err := env.settlement.Winner(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, winning.ID, again.ID)
}

func TestSettlement_WinnerNoBids(t *testing.T) {
	env := newTestEnv(t, false)
	item := env.createAuction(t, "user1", 100, time.Hour)

	env.clock.Advance(2 * time.Hour)

	_, err := env.settlement.Winner(context.Background(), item.ID)
	require.ErrorIs(t, err, domain.ErrNoBids)
}

// Admission forbids ties, so tied amounts can only appear in imported
// histories; the reduction must still resolve them deterministically by
// earliest placement.
func TestHighestBid_TieBreaksOnEarliestPlacement(t *testing.T) {
	earlier := testStart.Add(time.Minute)
	later := testStart.Add(2 * time.Minute)

	bids := []*domain.Bid{
		{ID: "bid-1", BidderID: "user2", Amount: dec(200), PlacedAt: later},
		{ID: "bid-2", BidderID: "user3", Amount: dec(200), PlacedAt: earlier},
		{ID: "bid-3", BidderID: "user4", Amount: dec(150), PlacedAt: testStart},
	}

	winning := highestBid(bids)
	require.Equal(t, "bid-2", winning.ID)
}

func TestSettlement_WonAuctions(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	won := env.createAuction(t, "user1", 100, time.Hour)
	lost := env.createAuction(t, "user1", 100, time.Hour)
	open := env.createAuction(t, "user1", 100, 48*time.Hour)

	_, err := env.admission.PlaceBid(ctx, won.ID, "user2", dec(150))
	require.NoError(t, err)
	_, err = env.admission.PlaceBid(ctx, won.ID, "user3", dec(151))
	require.NoError(t, err)

	// user3 bids on "lost" but is outbid.
	_, err = env.admission.PlaceBid(ctx, lost.ID, "user3", dec(120))
	require.NoError(t, err)
	_, err = env.admission.PlaceBid(ctx, lost.ID, "user2", dec(130))
	require.NoError(t, err)

	// user3 leads "open", but it has not ended.
	_, err = env.admission.PlaceBid(ctx, open.ID, "user3", dec(500))
	require.NoError(t, err)

	env.clock.Advance(time.Hour + time.Second)

	wonByUser3, err := env.settlement.WonAuctions(ctx, "user3")
	require.NoError(t, err)
	require.Len(t, wonByUser3, 1)
	require.Equal(t, won.ID, wonByUser3[0].AuctionID)
	require.True(t, wonByUser3[0].WinningBid.Equal(dec(151)))
	require.Equal(t, won.Title, wonByUser3[0].Title)

	wonByUser2, err := env.settlement.WonAuctions(ctx, "user2")
	require.NoError(t, err)
	require.Len(t, wonByUser2, 1)
	require.Equal(t, lost.ID, wonByUser2[0].AuctionID)

	// No bids anywhere: empty, not an error.
	wonByUser9, err := env.settlement.WonAuctions(ctx, "user9")
	require.NoError(t, err)
	require.Empty(t, wonByUser9)
}
