package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"auctionhouse/pkg/utils"
)

// AuctionLocker implements domain.AuctionLocker with a Redis SETNX lock per
// auction, for deployments where admission runs on more than one instance.
// The token guard ensures an instance can only release a lock it still holds;
// the TTL bounds hold time if a holder dies mid-commit.
type AuctionLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAuctionLocker(client *redis.Client, ttl time.Duration) *AuctionLocker {
	return &AuctionLocker{client: client, ttl: ttl}
}

const retryInterval = 10 * time.Millisecond

// releaseScript deletes the lock key only if it still carries our token.
var releaseScript = redis.NewScript(`
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("DEL", KEYS[1])
    end
    return 0
`)

func (l *AuctionLocker) Lock(ctx context.Context, auctionID string) (func(), error) {
	key := fmt.Sprintf("auction_lock:%s", auctionID)
	token := utils.GenerateID("lock")

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock for auction %s: %w", auctionID, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock for auction %s: %w", auctionID, ctx.Err())
		case <-time.After(retryInterval):
		}
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.client, []string{key}, token)
	}
	return release, nil
}
