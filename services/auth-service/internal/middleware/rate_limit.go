package middleware

import (
	"net/http"
	"net/netip"
	"strconv"
	"time"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/pkg/ratelimit"
	"BizBooksPlatform/services/auth-service/internal/service"
)

// RateLimitOption tunes RateLimit.
type RateLimitOption func(*rateLimitOptions)

type rateLimitOptions struct {
	trustedProxies []netip.Prefix
}

// WithTrustedProxies lets peers inside prefixes name the client through
// X-Forwarded-For or X-Real-IP. Everyone else is keyed by peer address.
func WithTrustedProxies(prefixes []netip.Prefix) RateLimitOption {
	return func(o *rateLimitOptions) {
		o.trustedProxies = prefixes
	}
}

// RateLimit allows limit requests per window for each client. Authenticated
// requests are keyed by business, anonymous ones by client IP. When the
// limiter itself fails the request is refused.
func RateLimit(limiter ratelimit.RateLimiter, limit int, window time.Duration, log logger.Logger, opts ...RateLimitOption) func(http.Handler) http.Handler {
	var o rateLimitOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r, o.trustedProxies)
			if tc, ok := service.TenantFromContext(r.Context()); ok {
				key = "business:" + tc.BusinessID
			}

			exceeded, err := limiter.CheckRateLimit(r.Context(), key, limit, window)
			if err != nil {
				log.Error("rate limit check failed",
					logger.CtxField(r.Context()),
					logger.String("key", key),
					logger.Error(err))
				pkgErrors.WriteJSON(w, pkgErrors.Wrap(err, pkgErrors.ErrInternal, "rate limiter unavailable"))
				return
			}

			if exceeded {
				log.Warn("rate limit exceeded",
					logger.CtxField(r.Context()),
					logger.String("key", key),
					logger.Int("limit", limit),
					logger.Duration("window", window),
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path))
				w.Header().Set("Retry-After", retryAfter(window))
				pkgErrors.WriteJSON(w, pkgErrors.New(pkgErrors.ErrRateLimited, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
