package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizBooksPlatform/pkg/connection"
	"BizBooksPlatform/pkg/logger"
)

func TestConfig_Options(t *testing.T) {
	config := NewConfig("cache:6380")
	config.DB = 2

	opts := config.options()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 10, opts.PoolSize)
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	config := NewConfig("127.0.0.1:1")
	config.DialTimeout = 100 * time.Millisecond
	config.MaxRetries = 0
	config.Retry = connection.RetryConfig{MaxAttempts: 2, InitialDelay: 10 * time.Millisecond, Multiplier: 1}

	_, err := Connect(ctx, config, logger.NewNop())
	require.Error(t, err)
}

func TestConnect_Live(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client, err := Connect(context.Background(), NewConfig(addr), logger.NewNop())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestHealthCheck_NoClient(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.HealthCheck(context.Background()))
	assert.NoError(t, client.Close())
}
