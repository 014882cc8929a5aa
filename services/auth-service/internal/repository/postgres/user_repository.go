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

const userColumns = `id, business_id, email, username, password_hash, first_name, last_name, mobile, status, created_at, updated_at`

type UserRepository struct {
	*BaseRepository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.conn(ctx).Exec(ctx, query,
		user.ID,
		user.BusinessID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Mobile,
		string(user.Status),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", repository.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	return r.scanOne(ctx, query, username)
}

// FindByIDInBusiness never returns a user of another business; a foreign id
// reads as ErrNotFound.
func (r *UserRepository) FindByIDInBusiness(ctx context.Context, businessID, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND business_id = $2`
	return r.scanOne(ctx, query, id, businessID)
}

func (r *UserRepository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE business_id = $1 ORDER BY created_at, id`

	rows, err := r.conn(ctx).Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	query := `UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, "update user status", query, id, string(status), time.Now().UTC())
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, "update user password", query, id, passwordHash, time.Now().UTC())
}

func (r *UserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: %w", op, repository.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	user, err := scanUser(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user   domain.User
		status string
	)
	err := row.Scan(
		&user.ID,
		&user.BusinessID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Mobile,
		&status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Status = domain.AccountStatus(status)
	return &user, nil
}
