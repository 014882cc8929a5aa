// Package mocks holds testify mocks of the auth service's storage and
// notification boundaries.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"BizBooksPlatform/services/auth-service/internal/domain"
)

// MockBusinessRepository mocks repository.BusinessRepository.
type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, business *domain.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) FindByID(ctx context.Context, id string) (*domain.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Business), args.Error(1)
}

func (m *MockBusinessRepository) FindByEmail(ctx context.Context, email string) (*domain.Business, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Business), args.Error(1)
}

func (m *MockBusinessRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockUserRepository mocks repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	return user(args)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return user(args)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	return user(args)
}

func (m *MockUserRepository) FindByIDInBusiness(ctx context.Context, businessID, id string) (*domain.User, error) {
	args := m.Called(ctx, businessID, id)
	return user(args)
}

func (m *MockUserRepository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.User, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func user(args mock.Arguments) (*domain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockCodeRepository mocks repository.CodeRepository.
type MockCodeRepository struct {
	mock.Mock
}

func (m *MockCodeRepository) Save(ctx context.Context, code *domain.VerificationCode, ttl time.Duration) error {
	args := m.Called(ctx, code, ttl)
	return args.Error(0)
}

func (m *MockCodeRepository) Find(ctx context.Context, email string, purpose domain.CodePurpose) (*domain.VerificationCode, error) {
	args := m.Called(ctx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationCode), args.Error(1)
}

func (m *MockCodeRepository) Consume(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, notBefore time.Time) (*domain.VerificationCode, error) {
	args := m.Called(ctx, email, purpose, codeHash, notBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationCode), args.Error(1)
}

func (m *MockCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// PassthroughTransactor runs fn directly, for tests that mock repositories.
type PassthroughTransactor struct{}

func (PassthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
