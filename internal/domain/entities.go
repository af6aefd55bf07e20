package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionItem is a listed object accepting bids until its end time.
// CurrentBid is null until the first bid is admitted and afterwards always
// equals the highest admitted bid amount. Status is never stored; it is
// derived from EndTime on every read.
type AuctionItem struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	StartingBid decimal.Decimal
	CurrentBid  decimal.NullDecimal
	EndTime     time.Time
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOpen reports whether the auction still accepts bids at the given instant.
func (a *AuctionItem) IsOpen(now time.Time) bool {
	return now.Before(a.EndTime)
}

// Status derives the auction status from EndTime. The active -> ended
// transition is monotone because time is.
func (a *AuctionItem) Status(now time.Time) AuctionStatus {
	if a.IsOpen(now) {
		return AuctionActive
	}
	return AuctionEnded
}

// EffectiveBid is the amount a new bid must strictly exceed: the current bid
// if one exists, the starting bid otherwise.
func (a *AuctionItem) EffectiveBid() decimal.Decimal {
	if a.CurrentBid.Valid {
		return a.CurrentBid.Decimal
	}
	return a.StartingBid
}

type AuctionStatus int

const (
	AuctionActive AuctionStatus = iota
	AuctionEnded
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionActive:
		return "active"
	case AuctionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Bid is an immutable, timestamped offer against a specific auction.
// Bids are append-only: admission is the only way a Bid comes into
// existence, and rejected attempts leave no record.
type Bid struct {
	ID        string
	AuctionID string
	BidderID  string
	Amount    decimal.Decimal
	PlacedAt  time.Time
}

// AuctionPatch carries a partial update for an auction item. Nil fields
// retain their prior value.
type AuctionPatch struct {
	Title       *string
	Description *string
	StartingBid *decimal.Decimal
	EndTime     *time.Time
	ImageURL    *string
}

// WonAuction is a settlement projection of an ended auction won by a user.
type WonAuction struct {
	AuctionID   string
	Title       string
	Description string
	WinningBid  decimal.Decimal
	EndTime     time.Time
}

type BidEvent struct {
	Type      BidEventType    `json:"type"`
	AuctionID string          `json:"auction_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

type BidEventType string

const (
	EventBidAccepted  BidEventType = "bid_accepted"
	EventAuctionEnded BidEventType = "auction_ended"
)
