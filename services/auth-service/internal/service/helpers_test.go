package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/notify"
	"BizBooksPlatform/services/auth-service/internal/pkg/hash"
	"BizBooksPlatform/services/auth-service/internal/pkg/jwt"
	"BizBooksPlatform/services/auth-service/internal/pkg/password"
	"BizBooksPlatform/services/auth-service/internal/repository/memory"
	"BizBooksPlatform/services/auth-service/internal/service"
)

const (
	testSecret  = "test-secret-key-that-is-long-enough-1234"
	testCodeTTL = 15 * time.Minute
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sequenceGenerator hands out 100001, 100002, ... so codes never collide.
type sequenceGenerator struct {
	mu   sync.Mutex
	next int
}

func (g *sequenceGenerator) Generate(length int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%0*d", length, 100000+g.next), nil
}

// captureNotifier records every event instead of delivering it.
type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *captureNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func (n *captureNotifier) lastCode(t *testing.T, email string, eventType notify.EventType) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Email == email && n.events[i].Type == eventType {
			return n.events[i].Code
		}
	}
	t.Fatalf("no %s event for %s", eventType, email)
	return ""
}

type testEnv struct {
	svc      *service.Service
	store    *memory.Store
	users    *memory.UserRepository
	vault    *service.CodeVault
	tokens   *jwt.Manager
	notifier *captureNotifier
	clock    *fakeClock
}

func newTestEnv(t *testing.T, opts ...func(*service.Dependencies)) *testEnv {
	t.Helper()

	clock := newFakeClock()
	store := memory.NewStore()
	gen := &sequenceGenerator{}
	vault := service.NewCodeVault(
		memory.NewCodeRepository(store),
		hash.NewCodeHasher(testSecret),
		6,
		testCodeTTL,
		service.WithVaultClock(clock.Now),
		service.WithGenerator(gen.Generate),
	)
	tokens := jwt.NewManager(testSecret, time.Hour, "bizbooks-auth", jwt.WithClock(clock.Now))
	notifier := &captureNotifier{}
	users := memory.NewUserRepository(store)

	deps := service.Dependencies{
		Businesses: memory.NewBusinessRepository(store),
		Users:      users,
		Transactor: memory.NewTransactor(store),
		Vault:      vault,
		Tokens:     tokens,
		Hasher:     password.NewBcryptHasher(password.MinCost),
		Notifier:   notifier,
		Logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		svc:      service.NewAuthService(deps, service.WithClock(clock.Now)),
		store:    store,
		users:    users,
		vault:    vault,
		tokens:   tokens,
		notifier: notifier,
		clock:    clock,
	}
}

func registerInput(email, username string) service.RegisterInput {
	return service.RegisterInput{
		BusinessName: "Acme Books",
		Email:        email,
		Username:     username,
		Password:     "Password123",
		FirstName:    "Ada",
	}
}

// registerActive registers and activates an account and returns its user.
func (e *testEnv) registerActive(t *testing.T, email, username string) *domain.User {
	t.Helper()
	ctx := context.Background()

	_, err := e.svc.Register(ctx, registerInput(email, username))
	require.NoError(t, err)

	code := e.notifier.lastCode(t, email, notify.EventActivationCode)
	_, err = e.svc.Verify(ctx, email, code)
	require.NoError(t, err)

	user, err := e.users.FindByEmail(ctx, email)
	require.NoError(t, err)
	return user
}

func requireCode(t *testing.T, err error, code pkgErrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	e, ok := pkgErrors.As(err)
	require.True(t, ok, "expected *errors.Error, got %T: %v", err, err)
	require.Equal(t, code, e.Code, "unexpected error: %v", err)
}
