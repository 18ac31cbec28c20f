// Package redis holds the Redis-backed adapters: the AI quota counter and the request rate limiter store.
package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

type Options struct {
	// Addrs is one address for a single node or several for a cluster.
	Addrs    []string
	Password string
	DB       int
}

// NewClient connects and pings. More than one address selects cluster mode.
func NewClient(ctx context.Context, opts Options) (goredis.UniversalClient, error) {
	addrs := make([]string, 0, len(opts.Addrs))
	for _, a := range opts.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis: no address configured")
	}

	var client goredis.UniversalClient
	if len(addrs) > 1 {
		client = goredis.NewClusterClient(&goredis.ClusterOptions{Addrs: addrs, Password: opts.Password})
	} else {
		client = goredis.NewClient(&goredis.Options{Addr: addrs[0], Password: opts.Password, DB: opts.DB})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
