package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

func (c *Client) Raw() *redis.Client {
	return c.redisdb
}

// Acquire takes a best-effort lease on key for ttl. Only the first caller inside
// the window gets true; the lease is never released early, it just expires.
func (c *Client) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.redisdb.SetNX(ctx, key, "1", ttl).Result()
}

// Allow is a fixed-window counter: the first hit in a window starts the TTL,
// and hits beyond limit are refused until the key expires.
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := c.redisdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(limit), nil
}
