package services

import (
	"context"
	"errors"
	"fmt"

	"auctionhouse/internal/domain"
	"auctionhouse/pkg/clock"
	"auctionhouse/pkg/logger"
)

// Settlement resolves winners for ended auctions. It derives every answer
// from the bid history alone, never from the cached CurrentBid, so a single
// history read is always a consistent snapshot.
type Settlement struct {
	auctions domain.AuctionStore
	bids     domain.BidStore
	clock    clock.Clock
	log      logger.Logger
}

func NewSettlement(auctions domain.AuctionStore, bids domain.BidStore, clk clock.Clock, log logger.Logger) *Settlement {
	return &Settlement{
		auctions: auctions,
		bids:     bids,
		clock:    clk,
		log:      log,
	}
}

// Winner returns the winning bid of an ended auction, or one of
// ErrNotFound, ErrAuctionNotEnded, ErrNoBids. Without further bids possible
// after close, repeated queries return the same winner.
func (s *Settlement) Winner(ctx context.Context, auctionID string) (*domain.Bid, error) {
	item, err := s.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if item.IsOpen(s.clock.Now()) {
		return nil, fmt.Errorf("winner of auction %s: %w", auctionID, domain.ErrAuctionNotEnded)
	}

	bids, err := s.bids.BidsForAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return nil, fmt.Errorf("winner of auction %s: %w", auctionID, domain.ErrNoBids)
	}

	return highestBid(bids), nil
}

// highestBid reduces the history on maximum amount. Admission keeps amounts
// strictly increasing per auction, so the maximum is also the last admitted
// bid and ties cannot occur in data this system wrote; the earliest-PlacedAt
// tie-break exists for histories imported from sources that cannot guarantee
// the admission invariant.
func highestBid(bids []*domain.Bid) *domain.Bid {
	winning := bids[0]
	for _, b := range bids[1:] {
		switch {
		case b.Amount.GreaterThan(winning.Amount):
			winning = b
		case b.Amount.Equal(winning.Amount) && b.PlacedAt.Before(winning.PlacedAt):
			winning = b
		}
	}
	return winning
}

// WonAuctions lists every ended auction whose winner is the given user.
// Winners are computed per auction through the same Winner path so the two
// queries can never diverge.
func (s *Settlement) WonAuctions(ctx context.Context, userID string) ([]*domain.WonAuction, error) {
	auctionIDs, err := s.bids.AuctionIDsWithBidsBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	won := make([]*domain.WonAuction, 0, len(auctionIDs))
	for _, auctionID := range auctionIDs {
		winning, err := s.Winner(ctx, auctionID)
		if err != nil {
			if errors.Is(err, domain.ErrAuctionNotEnded) ||
				errors.Is(err, domain.ErrNoBids) ||
				errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if winning.BidderID != userID {
			continue
		}

		item, err := s.auctions.GetAuction(ctx, auctionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}

		won = append(won, &domain.WonAuction{
			AuctionID:   auctionID,
			Title:       item.Title,
			Description: item.Description,
			WinningBid:  winning.Amount,
			EndTime:     item.EndTime,
		})
	}
	return won, nil
}
