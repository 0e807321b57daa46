// Package cache keeps project lookups in Redis in front of PostgreSQL.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Cache wraps the Redis client shared by the project cache and the
// activity stream.
type Cache struct {
	client     *redis.Client
	projectTTL time.Duration
}

// New connects to redisURL and verifies the connection. projectTTL bounds
// how long a cached project may be served.
func New(ctx context.Context, redisURL string, projectTTL time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	tunePool(opt)
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, projectTTL), nil
}

// tunePool leaves headroom for the activity worker's blocking XREADGROUP,
// which holds a connection for its whole block timeout.
func tunePool(opt *redis.Options) {
	opt.PoolSize = 12
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
}

// NewWithClient wraps an existing client. A non-positive TTL selects DefaultProjectTTL.
func NewWithClient(client *redis.Client, projectTTL time.Duration) *Cache {
	if projectTTL <= 0 {
		projectTTL = DefaultProjectTTL
	}
	return &Cache{client: client, projectTTL: projectTTL}
}

// Ping backs the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client hands the connection to the activity publisher and worker.
func (c *Cache) Client() *redis.Client {
	return c.client
}
