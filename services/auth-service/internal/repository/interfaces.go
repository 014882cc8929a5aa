package repository

import (
	"context"
	"errors"
	"time"

	"BizBooksPlatform/services/auth-service/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a unique email or username is taken.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrCodeInvalid covers an absent, expired or mismatched verification code.
	ErrCodeInvalid = errors.New("verification code is invalid or expired")
)

// BusinessRepository stores tenants.
type BusinessRepository interface {
	Create(ctx context.Context, business *domain.Business) error
	FindByID(ctx context.Context, id string) (*domain.Business, error)
	FindByEmail(ctx context.Context, email string) (*domain.Business, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
}

// UserRepository stores users. Lookups by email and username are global;
// FindByIDInBusiness and ListByBusiness are the tenant-scoped reads.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByIDInBusiness(ctx context.Context, businessID, id string) (*domain.User, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// CodeRepository stores verification codes keyed by (email, purpose).
type CodeRepository interface {
	// Save stores code, replacing any existing code for the same email and purpose.
	Save(ctx context.Context, code *domain.VerificationCode, ttl time.Duration) error
	// Find returns the current code for email and purpose, live or not.
	Find(ctx context.Context, email string, purpose domain.CodePurpose) (*domain.VerificationCode, error)
	// Consume deletes and returns the code only if its hash matches and it was
	// updated after notBefore. The check and the delete are one atomic step;
	// every other outcome is ErrCodeInvalid.
	Consume(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, notBefore time.Time) (*domain.VerificationCode, error)
	// DeleteExpired removes codes last updated before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Transactor runs fn in a unit of work. Repositories called with the ctx
// passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
