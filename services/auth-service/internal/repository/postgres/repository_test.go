package postgres

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("CREATE TABLE a (id INT);\n\n CREATE INDEX b ON a (id);  ;")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX b ON a (id)"}, statements)
	assert.Len(t, splitStatements(schemaSQL), 8)
}

func TestUserRepository_CRUD(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	businesses := NewBusinessRepository(pool)
	users := NewUserRepository(pool)

	business, user := seedAccount(t, ctx, businesses, users)

	found, err := users.FindByEmail(ctx, strings.ToUpper(user.Email))
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, business.ID, found.BusinessID)
	assert.Equal(t, domain.StatusPendingActivation, found.Status)

	byName, err := users.FindByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	require.NoError(t, users.UpdateStatus(ctx, user.ID, domain.StatusActive))
	require.NoError(t, users.UpdatePassword(ctx, user.ID, "$2a$10$other"))

	found, err = users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, found.Status)
	assert.Equal(t, "$2a$10$other", found.PasswordHash)

	_, err = users.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.UpdateStatus(ctx, uuid.NewString(), domain.StatusActive), repository.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	businesses := NewBusinessRepository(pool)
	users := NewUserRepository(pool)

	_, user := seedAccount(t, ctx, businesses, users)
	other, _ := seedAccount(t, ctx, businesses, users)

	dup := *user
	dup.ID = uuid.NewString()
	dup.BusinessID = other.ID
	dup.Username = "different" + uuid.NewString()[:8]
	dup.Email = strings.ToUpper(user.Email)

	err := users.Create(ctx, &dup)
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestUserRepository_TenantScopedReads(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	businesses := NewBusinessRepository(pool)
	users := NewUserRepository(pool)

	businessA, userA := seedAccount(t, ctx, businesses, users)
	businessB, userB := seedAccount(t, ctx, businesses, users)

	found, err := users.FindByIDInBusiness(ctx, businessA.ID, userA.ID)
	require.NoError(t, err)
	assert.Equal(t, userA.ID, found.ID)

	_, err = users.FindByIDInBusiness(ctx, businessA.ID, userB.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	listed, err := users.ListByBusiness(ctx, businessB.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, userB.ID, listed[0].ID)
}

func TestBusinessRepository(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	businesses := NewBusinessRepository(pool)
	users := NewUserRepository(pool)

	business, _ := seedAccount(t, ctx, businesses, users)

	require.NoError(t, businesses.UpdateStatus(ctx, business.ID, domain.StatusActive))

	found, err := businesses.FindByEmail(ctx, business.Email)
	require.NoError(t, err)
	assert.True(t, found.IsActive())

	_, err = businesses.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactor_RollsBack(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	businesses := NewBusinessRepository(pool)
	tx := NewTransactor(pool)

	id := uuid.NewString()
	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		require.NoError(t, businesses.Create(ctx, &domain.Business{
			ID: id, Name: "Rollback", Email: uniqueEmail("rb"),
			Status: domain.StatusPendingActivation, CreatedAt: now, UpdatedAt: now,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = businesses.FindByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func newCode(email string, purpose domain.CodePurpose, hash string, at time.Time) *domain.VerificationCode {
	return &domain.VerificationCode{
		ID:        uuid.NewString(),
		Email:     email,
		Purpose:   purpose,
		CodeHash:  hash,
		Payload:   []byte(`{"user_id":"x"}`),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestCodeRepository_SaveSupersedes(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	codes := NewCodeRepository(pool)
	email := uniqueEmail("code")
	now := time.Now().UTC()

	require.NoError(t, codes.Save(ctx, newCode(email, domain.PurposePasswordReset, "first", now), time.Minute))
	require.NoError(t, codes.Save(ctx, newCode(email, domain.PurposePasswordReset, "second", now), time.Minute))

	found, err := codes.Find(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "second", found.CodeHash)
	assert.JSONEq(t, `{"user_id":"x"}`, string(found.Payload))

	_, err = codes.Consume(ctx, email, domain.PurposePasswordReset, "first", now.Add(-time.Minute))
	assert.ErrorIs(t, err, repository.ErrCodeInvalid)
}

func TestCodeRepository_ConsumeOnceAndExpiry(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	codes := NewCodeRepository(pool)
	email := uniqueEmail("code")
	now := time.Now().UTC()

	require.NoError(t, codes.Save(ctx, newCode(email, domain.PurposeRegistrationActivation, "h", now), time.Minute))

	_, err := codes.Consume(ctx, email, domain.PurposeRegistrationActivation, "h", now)
	assert.ErrorIs(t, err, repository.ErrCodeInvalid, "updated_at must be strictly after notBefore")

	consumed, err := codes.Consume(ctx, email, domain.PurposeRegistrationActivation, "h", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, email, consumed.Email)

	_, err = codes.Consume(ctx, email, domain.PurposeRegistrationActivation, "h", now.Add(-time.Minute))
	assert.ErrorIs(t, err, repository.ErrCodeInvalid)

	_, err = codes.Find(ctx, email, domain.PurposeRegistrationActivation)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCodeRepository_ConcurrentConsume(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	codes := NewCodeRepository(pool)
	email := uniqueEmail("race")
	now := time.Now().UTC()

	require.NoError(t, codes.Save(ctx, newCode(email, domain.PurposePasswordReset, "h", now), time.Minute))

	var (
		wg        sync.WaitGroup
		successes int32
		rejected  int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := codes.Consume(ctx, email, domain.PurposePasswordReset, "h", now.Add(-time.Minute))
			if err == nil {
				atomic.AddInt32(&successes, 1)
			} else if errors.Is(err, repository.ErrCodeInvalid) {
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(9), rejected)
}

func TestCodeRepository_DeleteExpired(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	codes := NewCodeRepository(pool)
	old := time.Now().UTC().Add(-48 * time.Hour)
	email := uniqueEmail("old")

	require.NoError(t, codes.Save(ctx, newCode(email, domain.PurposeGenericVerify, "h", old), time.Minute))

	deleted, err := codes.DeleteExpired(ctx, old.Add(time.Second))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	_, err = codes.Find(ctx, email, domain.PurposeGenericVerify)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
