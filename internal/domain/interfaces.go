package domain

import (
	"context"
)

// AuctionStore owns the canonical auction records. DeleteAuction cascades
// deletion of the auction's bids.
type AuctionStore interface {
	CreateAuction(ctx context.Context, item *AuctionItem) error
	GetAuction(ctx context.Context, auctionID string) (*AuctionItem, error)
	// ListAuctions returns items newest-first by creation time. A non-empty
	// search term filters by case-insensitive substring match on title or
	// description.
	ListAuctions(ctx context.Context, search string) ([]*AuctionItem, error)
	ListAuctionsByOwner(ctx context.Context, ownerID string) ([]*AuctionItem, error)
	UpdateAuction(ctx context.Context, item *AuctionItem) error
	DeleteAuction(ctx context.Context, auctionID string) error
}

// BidStore owns the append-only bid history.
type BidStore interface {
	// CommitBid applies the bid append and the auction's current-bid update
	// as one atomic unit. It re-validates the amount against the stored
	// current bid at commit time and returns ErrBidTooLow if the bid no
	// longer strictly exceeds it, leaving no record. A failed commit leaves
	// no partial state.
	CommitBid(ctx context.Context, bid *Bid) error
	BidsForAuction(ctx context.Context, auctionID string) ([]*Bid, error)
	// AuctionIDsWithBidsBy returns the distinct auctions the user has bid on.
	AuctionIDsWithBidsBy(ctx context.Context, userID string) ([]string, error)
}

// AuctionLocker serializes mutations per auction. Admission holds the lock
// for the single validate-commit sequence; deletion holds it so cascading
// away an auction cannot race an in-flight bid. Locks on different auctions
// never contend.
type AuctionLocker interface {
	// Lock blocks until the per-auction lock is held or ctx is done. The
	// returned func releases it.
	Lock(ctx context.Context, auctionID string) (func(), error)
}

// EventPublisher is the outbound hook for external collaborators
// (notification fan-out, analytics). Delivery is best-effort; the core never
// depends on it for correctness.
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}
