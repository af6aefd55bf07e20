package domain

import "errors"

// Business-rule outcomes. These are returned as values and matched with
// errors.Is; anything not wrapping one of them is an infrastructure fault
// and surfaces as a 500 at the API layer.

// Validation rejections
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrBidTooLow     = errors.New("bid does not exceed current bid")
	ErrAuctionClosed = errors.New("auction has ended")
	ErrSelfBid       = errors.New("owner cannot bid on own auction")
)

// Authorization and lookup
var (
	ErrForbidden = errors.New("requester does not own this auction")
	ErrNotFound  = errors.New("auction not found")
)

// Settlement outcomes
var (
	ErrAuctionNotEnded = errors.New("auction has not ended yet")
	ErrNoBids          = errors.New("no bids placed on this auction")
)
