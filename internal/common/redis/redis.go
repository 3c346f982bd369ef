package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/ecocertain/metrics/internal/common/config"
	"github.com/ecocertain/metrics/internal/common/logger"
)

// Client wraps the go-redis client
type Client struct {
	*goredis.Client
	logger *logger.Logger
}

// Connect opens a Redis connection and verifies it with a ping
func Connect(cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Infof("Connected to Redis at %s:%s", cfg.Host, cfg.Port)

	return &Client{Client: client, logger: log}, nil
}

// Health verifies the connection is still alive
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// DeletePattern scans for keys matching pattern and deletes them
func (c *Client) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
