package services

import (
	"context"
	"sync"
)

// LocalAuctionLocker is the process-local domain.AuctionLocker: one mutex per
// auction ID, created on first use. Bids on different auctions never contend;
// bids on the same auction serialize for the single validate-commit sequence.
type LocalAuctionLocker struct {
	mu    sync.Mutex
	locks map[string]*auctionLock
}

type auctionLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocalAuctionLocker() *LocalAuctionLocker {
	return &LocalAuctionLocker{locks: make(map[string]*auctionLock)}
}

func (l *LocalAuctionLocker) Lock(ctx context.Context, auctionID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	entry, ok := l.locks[auctionID]
	if !ok {
		entry = &auctionLock{}
		l.locks[auctionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	release := func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, auctionID)
		}
		l.mu.Unlock()
	}
	return release, nil
}
