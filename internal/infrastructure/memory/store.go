package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"auctionhouse/internal/domain"
)

// Store is a concurrency-safe in-memory implementation of both
// domain.AuctionStore and domain.BidStore. It is the default backend for
// development and the fixture backend for tests.
type Store struct {
	mu       sync.RWMutex
	auctions map[string]*domain.AuctionItem
	bids     map[string][]*domain.Bid // auctionID -> bids in admission order
	userBids map[string][]string      // userID -> auctionIDs bid on
}

func NewStore() *Store {
	return &Store{
		auctions: make(map[string]*domain.AuctionItem),
		bids:     make(map[string][]*domain.Bid),
		userBids: make(map[string][]string),
	}
}

func (s *Store) CreateAuction(ctx context.Context, item *domain.AuctionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.auctions[item.ID]; exists {
		return fmt.Errorf("create auction %s: duplicate id", item.ID)
	}

	cp := *item
	s.auctions[item.ID] = &cp
	return nil
}

func (s *Store) GetAuction(ctx context.Context, auctionID string) (*domain.AuctionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, domain.ErrNotFound)
	}

	cp := *item
	return &cp, nil
}

func (s *Store) ListAuctions(ctx context.Context, search string) ([]*domain.AuctionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(search)

	items := make([]*domain.AuctionItem, 0, len(s.auctions))
	for _, item := range s.auctions {
		if term != "" &&
			!strings.Contains(strings.ToLower(item.Title), term) &&
			!strings.Contains(strings.ToLower(item.Description), term) {
			continue
		}
		cp := *item
		items = append(items, &cp)
	}

	sortNewestFirst(items)
	return items, nil
}

func (s *Store) ListAuctionsByOwner(ctx context.Context, ownerID string) ([]*domain.AuctionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*domain.AuctionItem
	for _, item := range s.auctions {
		if item.OwnerID == ownerID {
			cp := *item
			items = append(items, &cp)
		}
	}

	sortNewestFirst(items)
	return items, nil
}

func (s *Store) UpdateAuction(ctx context.Context, item *domain.AuctionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.auctions[item.ID]
	if !ok {
		return fmt.Errorf("update auction %s: %w", item.ID, domain.ErrNotFound)
	}

	cp := *item
	// CurrentBid is owned by the admission path; ledger updates never touch it.
	cp.CurrentBid = old.CurrentBid
	s.auctions[item.ID] = &cp
	return nil
}

func (s *Store) DeleteAuction(ctx context.Context, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, domain.ErrNotFound)
	}

	delete(s.auctions, auctionID)
	delete(s.bids, auctionID)
	for userID, ids := range s.userBids {
		kept := ids[:0]
		for _, id := range ids {
			if id != auctionID {
				kept = append(kept, id)
			}
		}
		s.userBids[userID] = kept
	}
	return nil
}

// CommitBid re-validates against the stored current bid and applies the
// current-bid update plus the history append under one lock acquisition, so
// readers never observe one without the other.
func (s *Store) CommitBid(ctx context.Context, bid *domain.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, domain.ErrNotFound)
	}

	if !bid.Amount.GreaterThan(item.EffectiveBid()) {
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, domain.ErrBidTooLow)
	}

	cp := *bid
	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], &cp)
	item.CurrentBid.Decimal = bid.Amount
	item.CurrentBid.Valid = true
	item.UpdatedAt = bid.PlacedAt

	for _, id := range s.userBids[bid.BidderID] {
		if id == bid.AuctionID {
			return nil
		}
	}
	s.userBids[bid.BidderID] = append(s.userBids[bid.BidderID], bid.AuctionID)
	return nil
}

func (s *Store) BidsForAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := make([]*domain.Bid, 0, len(s.bids[auctionID]))
	for _, b := range s.bids[auctionID] {
		cp := *b
		bids = append(bids, &cp)
	}
	return bids, nil
}

func (s *Store) AuctionIDsWithBidsBy(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.userBids[userID]...), nil
}

func sortNewestFirst(items []*domain.AuctionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
