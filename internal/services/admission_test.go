package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"auctionhouse/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAdmissionEngine_PlaceBid(t *testing.T) {
	tests := []struct {
		name          string
		bidderID      string
		amount        decimal.Decimal
		expectedError error
	}{
		{
			name:          "below_starting_bid",
			bidderID:      "user2",
			amount:        dec(90),
			expectedError: domain.ErrBidTooLow,
		},
		{
			name:          "equal_to_starting_bid",
			bidderID:      "user2",
			amount:        dec(100),
			expectedError: domain.ErrBidTooLow,
		},
		{
			name:     "above_starting_bid",
			bidderID: "user2",
			amount:   dec(150),
		},
		{
			name:          "owner_self_bid",
			bidderID:      "user1",
			amount:        dec(500),
			expectedError: domain.ErrSelfBid,
		},
		{
			name:          "empty_bidder",
			bidderID:      "",
			amount:        dec(500),
			expectedError: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			item := env.createAuction(t, "user1", 100, time.Hour)

			bid, err := env.admission.PlaceBid(context.Background(), item.ID, tt.bidderID, tt.amount)
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				require.Nil(t, bid)

				// Rejected attempts leave no record.
				bids, err := env.store.BidsForAuction(context.Background(), item.ID)
				require.NoError(t, err)
				require.Empty(t, bids)
				return
			}

			require.NoError(t, err)
			require.Equal(t, item.ID, bid.AuctionID)
			require.Equal(t, tt.bidderID, bid.BidderID)
			require.True(t, bid.Amount.Equal(tt.amount))

			stored, err := env.store.GetAuction(context.Background(), item.ID)
			require.NoError(t, err)
			require.True(t, stored.CurrentBid.Valid)
			require.True(t, stored.CurrentBid.Decimal.Equal(tt.amount))
		})
	}
}

// Scenario: starting bid 100; 90 rejected, 150 accepted, tie 150 rejected,
// 151 accepted.
func TestAdmissionEngine_BiddingSequence(t *testing.T) {
	env := newTestEnv(t, false)
	item := env.createAuction(t, "user1", 100, time.Hour)
	ctx := context.Background()

	_, err := env.admission.PlaceBid(ctx, item.ID, "user2", dec(90))
	require.ErrorIs(t, err, domain.ErrBidTooLow)

	bidB, err := env.admission.PlaceBid(ctx, item.ID, "user2", dec(150))
	require.NoError(t, err)

	_, err = env.admission.PlaceBid(ctx, item.ID, "user3", dec(150))
	require.ErrorIs(t, err, domain.ErrBidTooLow)

	bidD, err := env.admission.PlaceBid(ctx, item.ID, "user3", dec(151))
	require.NoError(t, err)

	stored, err := env.store.GetAuction(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentBid.Decimal.Equal(dec(151)))

	bids, err := env.store.BidsForAuction(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.Equal(t, bidB.ID, bids[0].ID)
	require.Equal(t, bidD.ID, bids[1].ID)

	events := env.events.Events()
	require.Len(t, events, 2)
	require.Equal(t, domain.EventBidAccepted, events[0].Type)
}

func TestAdmissionEngine_ClosedAuction(t *testing.T) {
	env := newTestEnv(t, false)
	item := env.createAuction(t, "user1", 100, time.Hour)
	ctx := context.Background()

	env.clock.Advance(time.Hour) // now == endTime: closed, boundary inclusive

	_, err := env.admission.PlaceBid(ctx, item.ID, "user2", dec(1000))
	require.ErrorIs(t, err, domain.ErrAuctionClosed)

	// No mutation on rejection, for any amount.
	stored, err := env.store.GetAuction(ctx, item.ID)
	require.NoError(t, err)
	require.False(t, stored.CurrentBid.Valid)

	bids, err := env.store.BidsForAuction(ctx, item.ID)
	require.NoError(t, err)
	require.Empty(t, bids)
}

func TestAdmissionEngine_UnknownAuction(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.admission.PlaceBid(context.Background(), "auction-missing", "user2", dec(10))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdmissionEngine_SelfBidAllowedByConfig(t *testing.T) {
	env := newTestEnv(t, true)
	item := env.createAuction(t, "user1", 100, time.Hour)

	bid, err := env.admission.PlaceBid(context.Background(), item.ID, "user1", dec(150))
	require.NoError(t, err)
	require.Equal(t, "user1", bid.BidderID)
}

// N concurrent bids with distinct amounts on one auction: the final current
// bid is the global maximum, and the admitted history is strictly increasing
// regardless of interleaving.
func TestAdmissionEngine_ConcurrentBids(t *testing.T) {
	env := newTestEnv(t, false)
	item := env.createAuction(t, "user1", 100, time.Hour)
	ctx := context.Background()

	const bidders = 50
	errs := make(chan error, bidders)
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			amount := dec(int64(101 + n))
			_, err := env.admission.PlaceBid(ctx, item.ID, "user2", amount)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, domain.ErrBidTooLow)
		}
	}

	maxAmount := dec(101 + bidders - 1)

	stored, err := env.store.GetAuction(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentBid.Valid)
	require.True(t, stored.CurrentBid.Decimal.Equal(maxAmount),
		"final current bid %s is not the maximum submitted %s", stored.CurrentBid.Decimal, maxAmount)

	bids, err := env.store.BidsForAuction(ctx, item.ID)
	require.NoError(t, err)
	require.NotEmpty(t, bids)
	for i := 1; i < len(bids); i++ {
		require.True(t, bids[i].Amount.GreaterThan(bids[i-1].Amount),
			"admitted amounts must be strictly increasing, got %s after %s", bids[i].Amount, bids[i-1].Amount)
	}
	require.True(t, bids[len(bids)-1].Amount.Equal(maxAmount))
}

// Bids on unrelated auctions must not serialize against each other: a held
// lock on one auction cannot block admission on another.
func TestLocalAuctionLocker_IndependentKeys(t *testing.T) {
	locker := NewLocalAuctionLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "auction-a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan error, 1)
	go func() {
		unlockB, err := locker.Lock(ctx, "auction-b")
		if err == nil {
			unlockB()
		}
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("lock on auction-b blocked behind lock on auction-a")
	}
}

func TestLocalAuctionLocker_SerializesSameKey(t *testing.T) {
	locker := NewLocalAuctionLocker()
	ctx := context.Background()

	var held, overlapped bool
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "auction-a")
			if err != nil {
				return
			}
			defer unlock()

			mu.Lock()
			if held {
				overlapped = true
			}
			held = true
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			held = false
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.False(t, overlapped, "two holders inside the same auction lock")
}
