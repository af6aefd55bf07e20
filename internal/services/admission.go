package services

import (
	"context"
	"fmt"

	"auctionhouse/internal/domain"
	"auctionhouse/pkg/clock"
	"auctionhouse/pkg/logger"
	"auctionhouse/pkg/utils"

	"github.com/shopspring/decimal"
)

// AdmissionEngine validates and commits bids. Admission of bids for one
// auction is serialized behind the per-auction lock; the read of the
// effective bid, the comparison and the commit happen inside one hold, so at
// most one of two racing bids for the same instant lands and the stored
// current bid never regresses.
type AdmissionEngine struct {
	auctions     domain.AuctionStore
	bids         domain.BidStore
	locker       domain.AuctionLocker
	events       domain.EventPublisher
	clock        clock.Clock
	allowSelfBid bool
	log          logger.Logger
}

func NewAdmissionEngine(
	auctions domain.AuctionStore,
	bids domain.BidStore,
	locker domain.AuctionLocker,
	events domain.EventPublisher,
	clk clock.Clock,
	allowSelfBid bool,
	log logger.Logger,
) *AdmissionEngine {
	return &AdmissionEngine{
		auctions:     auctions,
		bids:         bids,
		locker:       locker,
		events:       events,
		clock:        clk,
		allowSelfBid: allowSelfBid,
		log:          log,
	}
}

// PlaceBid admits or rejects a bid. Rejections come back as wrapped sentinel
// errors in a fixed check order: ErrNotFound, ErrAuctionClosed, ErrSelfBid,
// ErrBidTooLow. Anything else is an infrastructure fault and the commit is
// guaranteed to have left no partial state.
func (e *AdmissionEngine) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return nil, fmt.Errorf("place bid: missing auction or bidder: %w", domain.ErrInvalidInput)
	}

	unlock, err := e.locker.Lock(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("place bid on auction %s: %w", auctionID, err)
	}
	defer unlock()

	item, err := e.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if !item.IsOpen(now) {
		return nil, fmt.Errorf("place bid on auction %s: %w", auctionID, domain.ErrAuctionClosed)
	}

	if !e.allowSelfBid && bidderID == item.OwnerID {
		return nil, fmt.Errorf("place bid on auction %s: %w", auctionID, domain.ErrSelfBid)
	}

	// Ties are rejected: strict inequality keeps admitted amounts strictly
	// increasing, which settlement relies on.
	if !amount.GreaterThan(item.EffectiveBid()) {
		return nil, fmt.Errorf("place bid on auction %s: current bid is %s: %w",
			auctionID, item.EffectiveBid(), domain.ErrBidTooLow)
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  now,
	}

	if err := e.bids.CommitBid(ctx, bid); err != nil {
		return nil, err
	}

	e.log.Info("Bid admitted", "auction_id", auctionID, "bidder_id", bidderID, "amount", amount)
	e.publishAccepted(ctx, bid)
	return bid, nil
}

func (e *AdmissionEngine) BidsForAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	if _, err := e.auctions.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return e.bids.BidsForAuction(ctx, auctionID)
}

func (e *AdmissionEngine) publishAccepted(ctx context.Context, bid *domain.Bid) {
	if e.events == nil {
		return
	}

	event := &domain.BidEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: bid.AuctionID,
		UserID:    bid.BidderID,
		Amount:    bid.Amount,
		Timestamp: bid.PlacedAt,
	}
	if err := e.events.PublishBidEvent(ctx, event); err != nil {
		e.log.Warn("Failed to publish bid event", "auction_id", bid.AuctionID, "error", err)
	}
}
