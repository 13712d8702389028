// Package cache fronts listing search with a Redis read-through cache.
//
// Entries are keyed by a generation counter. Every listing mutation bumps the
// counter, so entries written before a mutation are never read again and
// simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"reviewhub/internal/listing/models"
)

const generationKey = "search:generation"

// RedisSearchCache stores search results as JSON.
type RedisSearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSearchCache(client *redis.Client, ttl time.Duration) *RedisSearchCache {
	return &RedisSearchCache{client: client, ttl: ttl}
}

func entryKey(generation int64, query string) string {
	return fmt.Sprintf("search:g%d:%s", generation, strings.ToLower(query))
}

// Get returns cached results and the generation they were looked up under.
// The generation must be passed back to Set on a miss.
func (c *RedisSearchCache) Get(ctx context.Context, query string) ([]*models.Listing, int64, bool, error) {
	generation, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.client.Get(ctx, entryKey(generation, query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, generation, false, nil
		}
		return nil, generation, false, fmt.Errorf("read search cache: %w", err)
	}
	var listings []*models.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, generation, false, fmt.Errorf("decode search cache: %w", err)
	}
	return listings, generation, true, nil
}

// Set stores results under the generation observed by Get. If a mutation has
// bumped the generation since, the entry is unreachable and expires.
func (c *RedisSearchCache) Set(ctx context.Context, generation int64, query string, listings []*models.Listing) error {
	raw, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("encode search cache: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(generation, query), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write search cache: %w", err)
	}
	return nil
}

// Invalidate makes every existing entry unreachable.
func (c *RedisSearchCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump search generation: %w", err)
	}
	return nil
}

func (c *RedisSearchCache) generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read search generation: %w", err)
	}
	return generation, nil
}
