package services

import (
	"context"
	"sync"

	"auctionhouse/internal/domain"
	"auctionhouse/pkg/clock"
	"auctionhouse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CloseWatcher periodically sweeps the ledger and publishes an auction-ended
// event for each auction that has passed its end time since the last sweep.
// Status itself stays derived from EndTime on read; the watcher only
// announces the transition to external collaborators, it never stores one.
type CloseWatcher struct {
	cron      *cron.Cron
	auctions  domain.AuctionStore
	events    domain.EventPublisher
	clock     clock.Clock
	log       logger.Logger
	mu        sync.Mutex
	announced map[string]struct{}
}

func NewCloseWatcher(auctions domain.AuctionStore, events domain.EventPublisher, clk clock.Clock, log logger.Logger) *CloseWatcher {
	return &CloseWatcher{
		cron:      cron.New(cron.WithSeconds()),
		auctions:  auctions,
		events:    events,
		clock:     clk,
		log:       log,
		announced: make(map[string]struct{}),
	}
}

func (w *CloseWatcher) Start(ctx context.Context, spec string) error {
	w.log.Info("Starting auction close watcher", "schedule", spec)

	_, err := w.cron.AddFunc(spec, func() {
		w.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	return nil
}

func (w *CloseWatcher) Stop() {
	w.log.Info("Stopping auction close watcher")
	w.cron.Stop()
}

// Sweep publishes an end event once per newly closed auction.
func (w *CloseWatcher) Sweep(ctx context.Context) {
	items, err := w.auctions.ListAuctions(ctx, "")
	if err != nil {
		w.log.Error("Close watcher failed to list auctions", "error", err)
		return
	}

	now := w.clock.Now()
	for _, item := range items {
		if item.IsOpen(now) {
			continue
		}

		w.mu.Lock()
		_, seen := w.announced[item.ID]
		if !seen {
			w.announced[item.ID] = struct{}{}
		}
		w.mu.Unlock()
		if seen {
			continue
		}

		event := &domain.BidEvent{
			Type:      domain.EventAuctionEnded,
			AuctionID: item.ID,
			Timestamp: now,
		}
		if err := w.events.PublishBidEvent(ctx, event); err != nil {
			w.log.Warn("Failed to publish auction end event", "auction_id", item.ID, "error", err)
			// retry on the next sweep
			w.mu.Lock()
			delete(w.announced, item.ID)
			w.mu.Unlock()
			continue
		}

		w.log.Info("Auction ended", "auction_id", item.ID, "end_time", item.EndTime)
	}
}
