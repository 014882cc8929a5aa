package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

const businessColumns = `id, name, email, mobile, status, created_at, updated_at`

type BusinessRepository struct {
	*BaseRepository
}

func NewBusinessRepository(pool *pgxpool.Pool) *BusinessRepository {
	return &BusinessRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *BusinessRepository) Create(ctx context.Context, business *domain.Business) error {
	query := `INSERT INTO businesses (` + businessColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn(ctx).Exec(ctx, query,
		business.ID,
		business.Name,
		business.Email,
		business.Mobile,
		string(business.Status),
		business.CreatedAt,
		business.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create business: %w", repository.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

func (r *BusinessRepository) FindByID(ctx context.Context, id string) (*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *BusinessRepository) FindByEmail(ctx context.Context, email string) (*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE lower(email) = lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *BusinessRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	query := `UPDATE businesses SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.conn(ctx).Exec(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update business status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update business status: %w", repository.ErrNotFound)
	}

	return nil
}

func (r *BusinessRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Business, error) {
	var (
		business domain.Business
		status   string
	)
	err := r.conn(ctx).QueryRow(ctx, query, arg).Scan(
		&business.ID,
		&business.Name,
		&business.Email,
		&business.Mobile,
		&status,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	business.Status = domain.AccountStatus(status)

	return &business, nil
}
