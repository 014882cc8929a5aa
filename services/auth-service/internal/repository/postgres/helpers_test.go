package postgres

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"BizBooksPlatform/services/auth-service/internal/domain"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// testPool connects to TEST_DATABASE_URL, or starts a throwaway postgres
// container when TEST_USE_CONTAINERS=1. Without either the test is skipped.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" && os.Getenv("TEST_USE_CONTAINERS") == "1" {
		containerOnce.Do(startContainer)
		require.NoError(t, containerErr)
		dsn = containerDSN
	}
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func startContainer() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bizbooks"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	if err != nil {
		containerErr = err
		return
	}
	containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
}

func uniqueEmail(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@example.com"
}

func seedAccount(t *testing.T, ctx context.Context, businesses *BusinessRepository, users *UserRepository) (*domain.Business, *domain.User) {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	email := uniqueEmail("owner")
	business := &domain.Business{
		ID:        uuid.NewString(),
		Name:      "Acme",
		Email:     email,
		Status:    domain.StatusPendingActivation,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, businesses.Create(ctx, business))

	user := &domain.User{
		ID:           uuid.NewString(),
		BusinessID:   business.ID,
		Email:        email,
		Username:     "u" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
		PasswordHash: "$2a$10$hash",
		Status:       domain.StatusPendingActivation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(ctx, user))

	return business, user
}
