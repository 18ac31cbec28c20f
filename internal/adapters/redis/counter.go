package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// decrScript decrements only positive counters and keeps the key's TTL.
var decrScript = goredis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

// Counter implements quota.Counter with INCR and a first-write EXPIRE.
type Counter struct {
	client goredis.UniversalClient
	prefix string
}

func NewCounter(client goredis.UniversalClient, prefix string) *Counter {
	return &Counter{client: client, prefix: prefix}
}

func (c *Counter) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := c.key(key)
	n, err := c.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", k, err)
	}
	if n == 1 {
		if err := c.client.Expire(ctx, k, window).Err(); err != nil {
			return n, fmt.Errorf("redis expire %s: %w", k, err)
		}
	}
	return n, nil
}

func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, c.key(key)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

func (c *Counter) Decr(ctx context.Context, key string) error {
	if err := decrScript.Run(ctx, c.client, []string{c.key(key)}).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis decr: %w", err)
	}
	return nil
}
