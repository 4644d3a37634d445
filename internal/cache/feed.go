package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/artfolio/backend/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Explore feed pages are cached briefly so popular anonymous traffic does
// not hammer the database.
const exploreFeedTTL = 60 * time.Second

// ExploreFeedKey builds the cache key for one page of the explore feed
func ExploreFeedKey(threadSlug, cursor string, limit int) string {
	if threadSlug == "" {
		threadSlug = "all"
	}
	if cursor == "" {
		cursor = "head"
	}
	return fmt.Sprintf("explore:%s:%s:%d", threadSlug, cursor, limit)
}

// GetExploreFeed returns a cached explore feed page, unmarshalled into dest.
// Returns false on a cache miss.
func (rc *RedisClient) GetExploreFeed(ctx context.Context, key string, dest interface{}) bool {
	if rc == nil {
		return false
	}
	raw, err := rc.Get(ctx, key)
	if err != nil {
		if err != redis.Nil {
			return false
		}
		metrics.RecordCacheMiss("explore_feed")
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	metrics.RecordCacheHit("explore_feed")
	return true
}

// SetExploreFeed caches one page of the explore feed
func (rc *RedisClient) SetExploreFeed(ctx context.Context, key string, page interface{}) error {
	if rc == nil {
		return nil
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return rc.SetEx(ctx, key, raw, exploreFeedTTL)
}

// InvalidateExploreFeed drops all cached explore pages. Called when a new
// work is published so it shows up promptly.
func (rc *RedisClient) InvalidateExploreFeed(ctx context.Context) error {
	if rc == nil {
		return nil
	}
	keys, err := rc.Keys(ctx, "explore:*")
	if err != nil || len(keys) == 0 {
		return err
	}
	return rc.Del(ctx, keys...)
}
