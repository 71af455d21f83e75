// Package redis owns the process-wide redis connection. Redis backs the
// session liveness store; when no URL is configured the service falls back
// to in-memory sessions and this package hands back nil.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fidelis/internal/platform/config"
)

// Client wraps the go-redis client so health checks and shutdown hang off
// one type.
type Client struct {
	*redis.Client
}

// New dials redis from config. A nil client with nil error means redis is
// not configured.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
