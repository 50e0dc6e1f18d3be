package calls

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardTTL = 24 * time.Hour

// DispatchGuard prevents a scheduled batch from firing twice when the task
// queue redelivers. Acquire is a redis SETNX on the batch key; the first
// caller wins, redeliveries see the claim and skip.
type DispatchGuard struct {
	rdb *redis.Client
}

func NewDispatchGuard(rdb *redis.Client) *DispatchGuard {
	return &DispatchGuard{rdb: rdb}
}

// Acquire claims the batch key. Returns true when this caller holds the claim.
// With no redis configured every caller wins, which is acceptable for
// single-node deployments.
func (g *DispatchGuard) Acquire(ctx context.Context, batchKey string) (bool, error) {
	if g == nil || g.rdb == nil {
		return true, nil
	}
	return g.rdb.SetNX(ctx, "dispatch:"+batchKey, time.Now().Unix(), guardTTL).Result()
}

// Release frees the claim so a failed dispatch can be retried.
func (g *DispatchGuard) Release(ctx context.Context, batchKey string) error {
	if g == nil || g.rdb == nil {
		return nil
	}
	return g.rdb.Del(ctx, "dispatch:"+batchKey).Err()
}
