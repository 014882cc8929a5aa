package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizBooksPlatform/pkg/connection"
	"BizBooksPlatform/pkg/logger"
)

func TestNewConfig_Defaults(t *testing.T) {
	config := NewConfig("postgres://u:p@localhost:5432/db")

	assert.Equal(t, int32(20), config.MaxConns)
	assert.Equal(t, 30*time.Minute, config.MaxConnLife)
	assert.Equal(t, 5, config.Retry.MaxAttempts)
}

func TestPoolConfig_AppliesLimits(t *testing.T) {
	config := NewConfig("postgres://u:p@db.internal:6543/bizbooks?sslmode=disable")
	config.MaxConns = 7
	config.MinConns = 1

	poolConfig, err := config.poolConfig()
	require.NoError(t, err)

	assert.Equal(t, int32(7), poolConfig.MaxConns)
	assert.Equal(t, int32(1), poolConfig.MinConns)
	assert.Equal(t, "db.internal", poolConfig.ConnConfig.Host)
	assert.Equal(t, uint16(6543), poolConfig.ConnConfig.Port)
	assert.Equal(t, "bizbooks", poolConfig.ConnConfig.Database)
}

func TestConnect_InvalidDSN(t *testing.T) {
	_, err := Connect(context.Background(), NewConfig("::not a dsn::"), logger.NewNop())
	require.Error(t, err)
}

func TestConnect_UnreachableDatabase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	config := NewConfig("postgres://u:p@127.0.0.1:1/db?connect_timeout=1")
	config.Retry = connection.RetryConfig{MaxAttempts: 2, InitialDelay: 10 * time.Millisecond, Multiplier: 1}

	_, err := Connect(ctx, config, logger.NewNop())
	require.Error(t, err)
}

func TestHealthCheck_NoPool(t *testing.T) {
	postgres := &Postgres{}
	assert.Error(t, postgres.HealthCheck(context.Background()))
	postgres.Close()
}
