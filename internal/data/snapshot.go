package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/stockpulse/stockpulse/internal/domain"
)

const snapshotKeyLayout = "2006-01-02"

// SnapshotCache keeps a short-lived Redis copy of a ticker's bar series
// for one exact date range, so a fully-cached historical read skips
// Postgres. It is a read accelerator only: Postgres stays authoritative,
// and ranges touching "today" always carry a gap so they never hit this
// path. Redis failures degrade to a miss, never to an error.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache wraps an existing Redis client.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(tickerID int64, from, to time.Time) string {
	return fmt.Sprintf("bars:%d:%s:%s", tickerID,
		from.Format(snapshotKeyLayout), to.Format(snapshotKeyLayout))
}

// Get returns the cached series for the exact range, if present.
func (c *SnapshotCache) Get(ctx context.Context, tickerID int64, from, to time.Time) ([]domain.Bar, bool) {
	key := snapshotKey(tickerID, from, to)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("redis snapshot read failed")
		}
		return nil, false
	}

	var bars []domain.Bar
	if err := json.Unmarshal([]byte(val), &bars); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt redis snapshot, discarding")
		return nil, false
	}
	return bars, true
}

// Set stores the series for the exact range with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, tickerID int64, from, to time.Time, bars []domain.Bar) {
	payload, err := json.Marshal(bars)
	if err != nil {
		log.Warn().Err(err).Int64("ticker_id", tickerID).Msg("snapshot marshal failed")
		return
	}
	key := snapshotKey(tickerID, from, to)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis snapshot write failed")
	}
}

// Clear drops every snapshot for a ticker, used when the ticker is removed.
func (c *SnapshotCache) Clear(ctx context.Context, tickerID int64) {
	pattern := fmt.Sprintf("bars:%d:*", tickerID)
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("redis snapshot scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("redis snapshot delete failed")
	}
}
