package memory

import (
	"context"
	"sync"

	"auctionhouse/internal/domain"
)

// EventLog is an in-process domain.EventPublisher that retains published
// events. It backs single-instance deployments without Redis and doubles as
// the publisher fixture in tests.
type EventLog struct {
	mu     sync.Mutex
	events []domain.BidEvent
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, *event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (l *EventLog) Events() []domain.BidEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.BidEvent(nil), l.events...)
}
