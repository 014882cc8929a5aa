package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"BizBooksPlatform/pkg/connection"
	"BizBooksPlatform/pkg/logger"
)

// Client wraps the shared go-redis client.
type Client struct {
	Client *redis.Client
}

type Config struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	MinIdleConn int
	MaxRetries  int
	DialTimeout time.Duration
	Retry       connection.RetryConfig
}

func NewConfig(addr string) *Config {
	return &Config{
		Addr:        addr,
		PoolSize:    10,
		MinIdleConn: 2,
		MaxRetries:  3,
		DialTimeout: 5 * time.Second,
		Retry:       connection.DefaultRetryConfig(),
	}
}

func (c *Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConn,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

// Connect creates the client and waits until PING succeeds.
func Connect(ctx context.Context, config *Config, log logger.Logger) (*Client, error) {
	client := redis.NewClient(config.options())

	err := connection.WithRetry(ctx, config.Retry, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		log.Warn("redis connection attempt failed",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", delay),
			logger.Error(err))
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("connected to redis", logger.String("addr", config.Addr))
	return &Client{Client: client}, nil
}

func (r *Client) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Client) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}
