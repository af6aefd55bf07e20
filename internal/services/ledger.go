package services

import (
	"context"
	"fmt"
	"time"

	"auctionhouse/internal/domain"
	"auctionhouse/pkg/clock"
	"auctionhouse/pkg/logger"
	"auctionhouse/pkg/utils"

	"github.com/shopspring/decimal"
)

// Ledger owns the canonical auction records: creation, reads, owner-scoped
// updates and deletion. It never touches CurrentBid; that field belongs to
// the admission engine.
type Ledger struct {
	auctions domain.AuctionStore
	locker   domain.AuctionLocker
	clock    clock.Clock
	log      logger.Logger
}

func NewLedger(auctions domain.AuctionStore, locker domain.AuctionLocker, clk clock.Clock, log logger.Logger) *Ledger {
	return &Ledger{
		auctions: auctions,
		locker:   locker,
		clock:    clk,
		log:      log,
	}
}

// CreateAuctionParams carries owner input for a new listing.
type CreateAuctionParams struct {
	OwnerID     string
	Title       string
	Description string
	StartingBid decimal.Decimal
	EndTime     time.Time
	ImageURL    string
}

func (l *Ledger) CreateAuction(ctx context.Context, params CreateAuctionParams) (*domain.AuctionItem, error) {
	now := l.clock.Now()

	if params.OwnerID == "" || params.Title == "" {
		return nil, fmt.Errorf("create auction: missing owner or title: %w", domain.ErrInvalidInput)
	}
	if !params.StartingBid.IsPositive() {
		return nil, fmt.Errorf("create auction: starting bid must be positive: %w", domain.ErrInvalidInput)
	}
	if !params.EndTime.After(now) {
		return nil, fmt.Errorf("create auction: end time must be in the future: %w", domain.ErrInvalidInput)
	}

	item := &domain.AuctionItem{
		ID:          utils.GenerateID("auction"),
		OwnerID:     params.OwnerID,
		Title:       params.Title,
		Description: params.Description,
		StartingBid: params.StartingBid,
		EndTime:     params.EndTime,
		ImageURL:    params.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.auctions.CreateAuction(ctx, item); err != nil {
		return nil, err
	}

	l.log.Info("Auction created", "auction_id", item.ID, "owner_id", item.OwnerID, "end_time", item.EndTime)
	return item, nil
}

func (l *Ledger) GetAuction(ctx context.Context, auctionID string) (*domain.AuctionItem, error) {
	return l.auctions.GetAuction(ctx, auctionID)
}

func (l *Ledger) ListAuctions(ctx context.Context, search string) ([]*domain.AuctionItem, error) {
	return l.auctions.ListAuctions(ctx, search)
}

func (l *Ledger) ListAuctionsByOwner(ctx context.Context, ownerID string) ([]*domain.AuctionItem, error) {
	return l.auctions.ListAuctionsByOwner(ctx, ownerID)
}

// UpdateAuction applies a partial patch to an owner's auction. Updating the
// starting bid after bids exist does not touch CurrentBid or invalidate
// admitted bids; it only changes the displayed floor.
func (l *Ledger) UpdateAuction(ctx context.Context, auctionID, requesterID string, patch domain.AuctionPatch) (*domain.AuctionItem, error) {
	item, err := l.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != requesterID {
		return nil, fmt.Errorf("update auction %s: %w", auctionID, domain.ErrForbidden)
	}

	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.StartingBid != nil {
		if !patch.StartingBid.IsPositive() {
			return nil, fmt.Errorf("update auction %s: starting bid must be positive: %w", auctionID, domain.ErrInvalidInput)
		}
		item.StartingBid = *patch.StartingBid
	}
	if patch.EndTime != nil {
		item.EndTime = *patch.EndTime
	}
	if patch.ImageURL != nil {
		item.ImageURL = *patch.ImageURL
	}
	item.UpdatedAt = l.clock.Now()

	if err := l.auctions.UpdateAuction(ctx, item); err != nil {
		return nil, err
	}

	l.log.Info("Auction updated", "auction_id", auctionID)
	return item, nil
}

// DeleteAuction removes an owner's auction and cascades its bids. It holds
// the per-auction lock so deletion cannot interleave with an in-flight bid
// admission and orphan a fresh bid.
func (l *Ledger) DeleteAuction(ctx context.Context, auctionID, requesterID string) error {
	unlock, err := l.locker.Lock(ctx, auctionID)
	if err != nil {
		return err
	}
	defer unlock()

	item, err := l.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if item.OwnerID != requesterID {
		return fmt.Errorf("delete auction %s: %w", auctionID, domain.ErrForbidden)
	}

	if err := l.auctions.DeleteAuction(ctx, auctionID); err != nil {
		return err
	}

	l.log.Info("Auction deleted", "auction_id", auctionID, "owner_id", requesterID)
	return nil
}
