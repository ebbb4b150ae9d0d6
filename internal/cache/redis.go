// Package cache keeps owner-scoped book listings in Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults applied to zero Options fields.
const (
	DefaultBookListTTL  = 5 * time.Minute
	DefaultPoolSize     = 10
	DefaultMinIdleConns = 2
)

// Options tunes the cache. Zero fields fall back to defaults.
type Options struct {
	BookListTTL  time.Duration
	PoolSize     int
	MinIdleConns int
}

func (o Options) withDefaults() Options {
	if o.BookListTTL <= 0 {
		o.BookListTTL = DefaultBookListTTL
	}
	if o.PoolSize <= 0 {
		o.PoolSize = DefaultPoolSize
	}
	if o.MinIdleConns <= 0 {
		o.MinIdleConns = DefaultMinIdleConns
	}
	if o.MinIdleConns > o.PoolSize {
		o.MinIdleConns = o.PoolSize
	}
	return o
}

// Cache stores book listings keyed by owner.
type Cache struct {
	client      *redis.Client
	bookListTTL time.Duration
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	opt, err := clientOptions(redisURL, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, opts), nil
}

func clientOptions(redisURL string, opts Options) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts = opts.withDefaults()
	opt.PoolSize = opts.PoolSize
	opt.MinIdleConns = opts.MinIdleConns
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	return opt, nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, opts Options) *Cache {
	return &Cache{client: client, bookListTTL: opts.withDefaults().BookListTTL}
}

// Ping reports whether Redis is reachable. It backs /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the Redis client to integration test helpers.
func (c *Cache) Client() *redis.Client {
	return c.client
}
