// Package app builds the auth service from configuration. The HTTP server and
// the authctl CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"BizBooksPlatform/pkg/config"
	"BizBooksPlatform/pkg/database"
	"BizBooksPlatform/pkg/health"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/pkg/metrics"
	"BizBooksPlatform/pkg/rabbitmq"
	"BizBooksPlatform/pkg/ratelimit"
	pkgRedis "BizBooksPlatform/pkg/redis"
	"BizBooksPlatform/services/auth-service/internal/handler"
	"BizBooksPlatform/services/auth-service/internal/middleware"
	"BizBooksPlatform/services/auth-service/internal/notify"
	"BizBooksPlatform/services/auth-service/internal/pkg/hash"
	"BizBooksPlatform/services/auth-service/internal/pkg/jwt"
	"BizBooksPlatform/services/auth-service/internal/pkg/password"
	"BizBooksPlatform/services/auth-service/internal/repository"
	"BizBooksPlatform/services/auth-service/internal/repository/memory"
	"BizBooksPlatform/services/auth-service/internal/repository/postgres"
	redisRepo "BizBooksPlatform/services/auth-service/internal/repository/redis"
	"BizBooksPlatform/services/auth-service/internal/service"
)

const (
	ServiceName    = "auth-service"
	ServiceVersion = "1.0.0"

	metricsNamespace = "bizbooks"
	requestTimeout   = 30 * time.Second
)

// Options override process-wide defaults, mostly for tests.
type Options struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// Notifier replaces the configured RabbitMQ or log notifier.
	Notifier notify.Notifier
}

// App holds the wired service and the connections it owns.
type App struct {
	Config *config.Config
	Log    logger.Logger
	Auth   *service.Service
	Vault  *service.CodeVault
	Tokens *jwt.Manager
	Health *health.DependencyChecker

	pool    *pgxpool.Pool
	router  http.Handler
	closers []func() error
}

// New connects every configured backend and wires the service. On error the
// connections opened so far are closed.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (_ *App, err error) {
	a := &App{
		Config: cfg,
		Log:    log,
		Health: health.NewDependencyChecker(ServiceVersion, 3*time.Second),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var redisClient *pkgRedis.Client
	if cfg.Auth.StorageDriver == config.StoragePostgres {
		if err := a.connectPostgres(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.Auth.CodeStore == config.StorageRedis || (cfg.RateLimit.Enabled && cfg.RateLimit.Store == config.StorageRedis) {
		if redisClient, err = a.connectRedis(ctx); err != nil {
			return nil, err
		}
	}

	store := memory.NewStore()
	var (
		businesses repository.BusinessRepository
		users      repository.UserRepository
		transactor repository.Transactor
		codes      repository.CodeRepository
	)
	if a.pool != nil {
		businesses = postgres.NewBusinessRepository(a.pool)
		users = postgres.NewUserRepository(a.pool)
		transactor = postgres.NewTransactor(a.pool)
	} else {
		businesses = memory.NewBusinessRepository(store)
		users = memory.NewUserRepository(store)
		transactor = memory.NewTransactor(store)
	}
	switch cfg.Auth.CodeStore {
	case config.StoragePostgres:
		codes = postgres.NewCodeRepository(a.pool)
	case config.StorageRedis:
		codes = redisRepo.NewCodeRepository(redisClient.Client)
	default:
		codes = memory.NewCodeRepository(store)
	}

	notifier := opts.Notifier
	if notifier == nil {
		if notifier, err = a.newNotifier(ctx); err != nil {
			return nil, err
		}
	}

	reg, gatherer := opts.Registerer, opts.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	var m *metrics.Metrics
	var observer service.Observer
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics(metricsNamespace, reg, gatherer)
		observer = m
	}
	if cfg.Metrics.Tracing {
		tp := metrics.InitializeOpenTelemetry(ServiceName, ServiceVersion)
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return tp.Shutdown(ctx)
		})
	}

	a.Tokens = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL.Duration(), cfg.JWT.Issuer)
	a.Vault = service.NewCodeVault(
		codes,
		hash.NewCodeHasher(cfg.JWT.Secret),
		cfg.Auth.CodeLength,
		cfg.Auth.CodeTTL.Duration(),
	)
	a.Auth = service.NewAuthService(service.Dependencies{
		Businesses: businesses,
		Users:      users,
		Transactor: transactor,
		Vault:      a.Vault,
		Tokens:     a.Tokens,
		Hasher:     password.NewBcryptHasher(cfg.Auth.BcryptCost),
		Notifier:   notifier,
		Logger:     log,
		Metrics:    observer,
	})

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	var limiter ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		if redisClient != nil && cfg.RateLimit.Store == config.StorageRedis {
			limiter = ratelimit.NewRedisRateLimiter(redisClient.Client)
		} else {
			limiter = ratelimit.NewMemoryRateLimiter()
		}
	}

	a.router = handler.NewRouter(handler.RouterConfig{
		Handler:        handler.New(a.Auth, log),
		Verifier:       a.Tokens,
		Logger:         log,
		Limiter:        limiter,
		RateLimit:      cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window.Duration(),
		TrustedProxies: trustedProxies,
		Metrics:        m,
		Health:         a.Health,
		RequestTimeout: requestTimeout,
	})

	log.Info("auth service wired",
		logger.String("storage", cfg.Auth.StorageDriver),
		logger.String("code_store", cfg.Auth.CodeStore),
		logger.Bool("rabbitmq", cfg.RabbitMQ.Enabled && opts.Notifier == nil),
		logger.Bool("rate_limit", limiter != nil))

	return a, nil
}

func (a *App) connectPostgres(ctx context.Context) error {
	dbCfg := database.NewConfig(a.Config.Database.DSN())
	if a.Config.Database.MaxConns > 0 {
		dbCfg.MaxConns = int32(a.Config.Database.MaxConns)
	}
	if a.Config.Database.MinConns > 0 {
		dbCfg.MinConns = int32(a.Config.Database.MinConns)
	}
	dbCfg.MaxConnLife = a.Config.Database.MaxConnLife.Duration()
	dbCfg.MaxConnIdle = a.Config.Database.MaxConnIdle.Duration()
	if a.Config.Database.MaxRetries > 0 {
		dbCfg.Retry.MaxAttempts = a.Config.Database.MaxRetries
	}

	db, err := database.Connect(ctx, dbCfg, a.Log)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.pool = db.Pool
	a.closers = append(a.closers, func() error {
		db.Close()
		return nil
	})
	a.Health.Register("postgres", db.HealthCheck)

	if a.Config.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db.Pool); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		a.Log.Info("schema migrated")
	}
	return nil
}

func (a *App) connectRedis(ctx context.Context) (*pkgRedis.Client, error) {
	redisCfg := pkgRedis.NewConfig(a.Config.Redis.Addr)
	redisCfg.Password = a.Config.Redis.Password
	redisCfg.DB = a.Config.Redis.DB
	if a.Config.Redis.PoolSize > 0 {
		redisCfg.PoolSize = a.Config.Redis.PoolSize
	}
	if a.Config.Redis.MinIdleConn > 0 {
		redisCfg.MinIdleConn = a.Config.Redis.MinIdleConn
	}
	if a.Config.Redis.MaxRetries > 0 {
		redisCfg.MaxRetries = a.Config.Redis.MaxRetries
	}
	if d := a.Config.Redis.DialTimeout.Duration(); d > 0 {
		redisCfg.DialTimeout = d
	}

	client, err := pkgRedis.Connect(ctx, redisCfg, a.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.Health.Register("redis", client.HealthCheck)
	return client, nil
}

func (a *App) newNotifier(ctx context.Context) (notify.Notifier, error) {
	if !a.Config.RabbitMQ.Enabled {
		return notify.NewLogNotifier(a.Log), nil
	}

	mqCfg := rabbitmq.NewConfig(a.Config.RabbitMQ.URL, a.Config.RabbitMQ.Exchange, a.Config.RabbitMQ.RoutingKey)
	conn, err := rabbitmq.Connect(ctx, mqCfg, a.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	a.closers = append(a.closers, conn.Close)
	a.Health.Register("rabbitmq", conn.HealthCheck)

	producer, err := rabbitmq.NewProducer(conn, mqCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create rabbitmq producer: %w", err)
	}
	return notify.NewRabbitMQNotifier(producer, a.Config.RabbitMQ.RoutingKey), nil
}

// Router returns the HTTP handler for the service.
func (a *App) Router() http.Handler {
	return a.router
}

// Migrate applies the schema. It fails when the app runs without Postgres.
func (a *App) Migrate(ctx context.Context) error {
	if a.pool == nil {
		return fmt.Errorf("migrate requires auth.storage_driver %q", config.StoragePostgres)
	}
	return postgres.Migrate(ctx, a.pool)
}

// PurgeExpiredCodes removes codes older than the code TTL.
func (a *App) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	return a.Vault.Purge(ctx)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
