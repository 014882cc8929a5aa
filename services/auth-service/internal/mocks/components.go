package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"BizBooksPlatform/services/auth-service/internal/notify"
)

// MockNotifier mocks notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event notify.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRateLimiter mocks ratelimit.RateLimiter.
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
