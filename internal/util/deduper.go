package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce tries to acquire a dedup lock for a given handler + key.
// Returns true if this is the first time processing, false on a
// duplicate. When redis is unavailable it does not block processing.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, key string) bool {
	k := fmt.Sprintf("dedup:%s:%s", handler, key)

	ok, err := d.rdb.SetNX(ctx, k, 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// Release drops the dedup key so a requeued delivery of the same event
// is processed again. Called before nacking a retryable failure.
func (d *Deduper) Release(ctx context.Context, handler, key string) {
	k := fmt.Sprintf("dedup:%s:%s", handler, key)
	_ = d.rdb.Del(ctx, k).Err()
}
