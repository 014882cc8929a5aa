package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"BizBooksPlatform/pkg/connection"
	"BizBooksPlatform/pkg/logger"
)

// Postgres owns the service-wide connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

type Config struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	HealthCheck time.Duration
	Retry       connection.RetryConfig
}

// NewConfig returns pool defaults for dsn.
func NewConfig(dsn string) *Config {
	return &Config{
		DSN:         dsn,
		MaxConns:    20,
		MinConns:    2,
		MaxConnLife: 30 * time.Minute,
		MaxConnIdle: 5 * time.Minute,
		HealthCheck: 30 * time.Second,
		Retry:       connection.DefaultRetryConfig(),
	}
}

func (c *Config) poolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	if c.MaxConns > 0 {
		poolConfig.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		poolConfig.MinConns = c.MinConns
	}
	if c.MaxConnLife > 0 {
		poolConfig.MaxConnLifetime = c.MaxConnLife
		poolConfig.MaxConnLifetimeJitter = c.MaxConnLife / 10
	}
	if c.MaxConnIdle > 0 {
		poolConfig.MaxConnIdleTime = c.MaxConnIdle
	}
	if c.HealthCheck > 0 {
		poolConfig.HealthCheckPeriod = c.HealthCheck
	}

	return poolConfig, nil
}

// Connect opens the pool and pings it, retrying with backoff.
func Connect(ctx context.Context, config *Config, log logger.Logger) (*Postgres, error) {
	poolConfig, err := config.poolConfig()
	if err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	err = connection.WithRetry(ctx, config.Retry, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("failed to create pool: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		pool = p
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		log.Warn("postgres connection attempt failed",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", delay),
			logger.Error(err))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("connected to postgres",
		logger.String("host", poolConfig.ConnConfig.Host),
		logger.String("database", poolConfig.ConnConfig.Database))

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// HealthCheck runs a trivial query through the pool.
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if p.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	var result string
	return p.Pool.QueryRow(ctx, "SELECT 'healthy'").Scan(&result)
}
