package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter is a fixed-window request counter.
type RateLimiter interface {
	// CheckRateLimit counts one request for key and reports whether the
	// limit for the current window has been exceeded.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// INCR and the first PEXPIRE run as one script so a crash between them cannot
// leave a counter without a TTL.
var incrWindow = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisRateLimiter shares counters between service instances.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: "rate_limit:"}
}

func (r *RedisRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	current, err := incrWindow.Run(ctx, r.client, []string{r.prefix + key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	return current > int64(limit), nil
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter keeps counters in process memory.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	nextSweep time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (m *MemoryRateLimiter) WithClock(now func() time.Time) *MemoryRateLimiter {
	m.now = now
	return m
}

func (m *MemoryRateLimiter) CheckRateLimit(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		m.windows[key] = w
		if !now.Before(m.nextSweep) {
			m.gc(now)
			m.nextSweep = now.Add(win)
		}
	}
	w.count++

	return w.count > limit, nil
}

// gc drops expired windows. It runs at most once per window length, so the
// scan cost is spread over every request in that window.
func (m *MemoryRateLimiter) gc(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
