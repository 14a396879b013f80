package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const listTTL = 30 * time.Second

// ListCache mirrors collection listings in Redis so that reads stay fast
// while a mutation round-trip is in flight. Entries are short-lived; a miss
// simply falls through to the database.
// Key format: lists:<collection>
type ListCache struct {
	client *redis.Client
}

// NewListCache creates a ListCache wrapping the given Redis client.
func NewListCache(client *redis.Client) *ListCache {
	return &ListCache{client: client}
}

// Get loads the cached listing for key into v. The boolean reports whether an
// entry was present.
func (c *ListCache) Get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("cache decode: %w", err)
	}
	return true, nil
}

// Set stores the listing under key, replacing any previous entry.
func (c *ListCache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, listTTL).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the entries for the given keys. Called after every write
// so the next read reflects the stored state.
func (c *ListCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (c *ListCache) key(k string) string {
	return "lists:" + k
}
