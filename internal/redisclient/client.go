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

// IncrWindow bumps the counter for key, starting a fresh fixed window with
// the given ttl when the key is new. Returns the count inside the current
// window plus its remaining lifetime.
func (c *Client) IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	count, err := c.redisdb.Incr(ctx, key).Result()

	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		err = c.redisdb.Expire(ctx, key, ttl).Err()

		if err != nil {
			return 0, 0, err
		}

		return count, ttl, nil
	}

	remaining, err := c.redisdb.TTL(ctx, key).Result()

	if err != nil {
		return 0, 0, err
	}

	// A key that lost its ttl (crashed Expire) would otherwise count forever.
	if remaining < 0 {
		err = c.redisdb.Expire(ctx, key, ttl).Err()

		if err != nil {
			return 0, 0, err
		}

		remaining = ttl
	}

	return count, remaining, nil
}
