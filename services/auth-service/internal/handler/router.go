package handler

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"BizBooksPlatform/pkg/health"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/pkg/metrics"
	"BizBooksPlatform/pkg/ratelimit"
	"BizBooksPlatform/services/auth-service/internal/middleware"
)

// RouterConfig wires the HTTP surface. Limiter, Metrics and Health are optional.
type RouterConfig struct {
	Handler        *Handler
	Verifier       middleware.TokenVerifier
	Logger         logger.Logger
	Limiter        ratelimit.RateLimiter
	RateLimit      int
	RateWindow     time.Duration
	TrustedProxies []netip.Prefix
	Metrics        *metrics.Metrics
	Health         health.HealthChecker
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recover(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	if cfg.Health != nil {
		r.Get("/health", health.Handler(cfg.Health))
		r.Get("/health/ready", health.ReadyHandler(cfg.Health))
	}
	r.Get("/health/live", health.LiveHandler())
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.GetHandler())
	}

	authenticate := middleware.Authenticate(cfg.Verifier, cfg.Logger)
	limit := func(next http.Handler) http.Handler { return next }
	if cfg.Limiter != nil {
		limit = middleware.RateLimit(cfg.Limiter, cfg.RateLimit, cfg.RateWindow, cfg.Logger,
			middleware.WithTrustedProxies(cfg.TrustedProxies))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/register", h.Register)
			r.Post("/verify", h.Verify)
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/verify-code", h.VerifyCode)
			r.Post("/confirm-password", h.ConfirmPassword)
			r.Post("/apply-activation", h.ApplyForActivation)
			r.Get("/user-activate/{email}", h.UserActivate)
		})
		r.With(authenticate, limit).Get("/me", h.Me)
	})

	r.Route("/business", func(r chi.Router) {
		r.Use(authenticate, limit)
		r.Get("/", h.Business)
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
	})

	return r
}
