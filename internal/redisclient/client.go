package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const summaryKey = "catalog:summary"

// Client caches derived catalog views in Redis. The flat record files stay
// the source of truth; every caller must fall back to recomputing from the
// store on any cache error.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client.
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetCatalogSummary returns the cached summary JSON, or redis.Nil when the
// cache is cold.
func (c *Client) GetCatalogSummary(ctx context.Context) ([]byte, error) {
	return c.rdb.Get(ctx, summaryKey).Bytes()
}

// SetCatalogSummary caches the summary JSON with a TTL.
func (c *Client) SetCatalogSummary(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, summaryKey, payload, ttl).Err()
}

// InvalidateCatalog drops the cached summary. Called after every stock
// mutation.
func (c *Client) InvalidateCatalog(ctx context.Context) error {
	return c.rdb.Del(ctx, summaryKey).Err()
}

// IsCacheMiss reports whether an error is a cold-cache read.
func IsCacheMiss(err error) bool {
	return err == redis.Nil
}
