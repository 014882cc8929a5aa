package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

func seed(t *testing.T, store *Store, businessID, userID, email, username string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, NewBusinessRepository(store).Create(ctx, &domain.Business{
		ID: businessID, Name: "Acme", Email: email,
		Status: domain.StatusPendingActivation, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, NewUserRepository(store).Create(ctx, &domain.User{
		ID: userID, BusinessID: businessID, Email: email, Username: username,
		PasswordHash: "hash", Status: domain.StatusPendingActivation, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestUserRepository_Uniqueness(t *testing.T) {
	store := NewStore()
	seed(t, store, "b-1", "u-1", "owner@example.com", "owner")
	users := NewUserRepository(store)
	ctx := context.Background()

	err := users.Create(ctx, &domain.User{ID: "u-2", BusinessID: "b-1", Email: "OWNER@example.com", Username: "other"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	err = users.Create(ctx, &domain.User{ID: "u-3", BusinessID: "b-1", Email: "new@example.com", Username: "Owner"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	err = NewBusinessRepository(store).Create(ctx, &domain.Business{ID: "b-2", Email: "Owner@Example.com"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	store := NewStore()
	seed(t, store, "b-1", "u-1", "owner@example.com", "owner")
	users := NewUserRepository(store)
	ctx := context.Background()

	found, err := users.FindByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	found.Status = domain.StatusActive

	again, err := users.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingActivation, again.Status)
}

func TestUserRepository_TenantScope(t *testing.T) {
	store := NewStore()
	seed(t, store, "b-1", "u-1", "a@example.com", "alice")
	seed(t, store, "b-2", "u-2", "b@example.com", "bob")
	users := NewUserRepository(store)
	ctx := context.Background()

	_, err := users.FindByIDInBusiness(ctx, "b-1", "u-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	found, err := users.FindByIDInBusiness(ctx, "b-2", "u-2")
	require.NoError(t, err)
	assert.Equal(t, "bob", found.Username)

	listed, err := users.ListByBusiness(ctx, "b-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "u-1", listed[0].ID)

	listed, err = users.ListByBusiness(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestTransactor_UndoesWritesOnError(t *testing.T) {
	store := NewStore()
	seed(t, store, "b-1", "u-1", "a@example.com", "alice")
	tx := NewTransactor(store)
	users := NewUserRepository(store)
	businesses := NewBusinessRepository(store)
	codes := NewCodeRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, codes.Save(ctx, &domain.VerificationCode{
		Email: "a@example.com", Purpose: domain.PurposeRegistrationActivation, CodeHash: "h", UpdatedAt: now,
	}, time.Minute))

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := codes.Consume(ctx, "a@example.com", domain.PurposeRegistrationActivation, "h", now.Add(-time.Minute)); err != nil {
			return err
		}
		require.NoError(t, users.UpdateStatus(ctx, "u-1", domain.StatusActive))
		require.NoError(t, businesses.UpdateStatus(ctx, "b-1", domain.StatusActive))
		require.NoError(t, users.Create(ctx, &domain.User{ID: "u-9", BusinessID: "b-1", Email: "x@example.com", Username: "x"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	user, err := users.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingActivation, user.Status)

	business, err := businesses.FindByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingActivation, business.Status)

	_, err = users.FindByID(ctx, "u-9")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = codes.Find(ctx, "a@example.com", domain.PurposeRegistrationActivation)
	assert.NoError(t, err, "consumed code is restored")
}

func TestTransactor_CommitsAndJoinsNested(t *testing.T) {
	store := NewStore()
	seed(t, store, "b-1", "u-1", "a@example.com", "alice")
	tx := NewTransactor(store)
	users := NewUserRepository(store)
	ctx := context.Background()

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return users.UpdatePassword(ctx, "u-1", "new-hash")
		})
	})
	require.NoError(t, err)

	user, err := users.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", user.PasswordHash)
}

func TestCodeRepository_Semantics(t *testing.T) {
	codes := NewCodeRepository(NewStore())
	ctx := context.Background()
	now := time.Now().UTC()

	save := func(hash string, at time.Time) {
		require.NoError(t, codes.Save(ctx, &domain.VerificationCode{
			Email: "a@example.com", Purpose: domain.PurposePasswordReset, CodeHash: hash, UpdatedAt: at,
		}, time.Minute))
	}

	save("first", now)
	save("second", now)

	_, err := codes.Consume(ctx, "a@example.com", domain.PurposePasswordReset, "first", now.Add(-time.Minute))
	assert.ErrorIs(t, err, repository.ErrCodeInvalid, "superseded")

	_, err = codes.Consume(ctx, "a@example.com", domain.PurposeRegistrationActivation, "second", now.Add(-time.Minute))
	assert.ErrorIs(t, err, repository.ErrCodeInvalid, "wrong purpose")

	_, err = codes.Consume(ctx, "a@example.com", domain.PurposePasswordReset, "second", now)
	assert.ErrorIs(t, err, repository.ErrCodeInvalid, "expired at the boundary")

	_, err = codes.Consume(ctx, "A@Example.com", domain.PurposePasswordReset, "second", now.Add(-time.Minute))
	assert.NoError(t, err)

	_, err = codes.Consume(ctx, "a@example.com", domain.PurposePasswordReset, "second", now.Add(-time.Minute))
	assert.ErrorIs(t, err, repository.ErrCodeInvalid, "replay")

	save("old", now.Add(-time.Hour))
	deleted, err := codes.DeleteExpired(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestCodeRepository_ConcurrentConsume(t *testing.T) {
	codes := NewCodeRepository(NewStore())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, codes.Save(ctx, &domain.VerificationCode{
		Email: "a@example.com", Purpose: domain.PurposePasswordReset, CodeHash: "h", UpdatedAt: now,
	}, time.Minute))

	var (
		wg        sync.WaitGroup
		successes int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := codes.Consume(ctx, "a@example.com", domain.PurposePasswordReset, "h", now.Add(-time.Minute)); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
}
