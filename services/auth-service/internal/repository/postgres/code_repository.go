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

const codeColumns = `id, email, purpose, code_hash, payload, created_at, updated_at`

// CodeRepository keeps one row per (email, purpose).
type CodeRepository struct {
	*BaseRepository
}

func NewCodeRepository(pool *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{BaseRepository: NewBaseRepository(pool)}
}

// Save upserts on (email, purpose), so a new code replaces the previous one in
// the same statement. Expiry is enforced from updated_at; ttl is unused here.
func (r *CodeRepository) Save(ctx context.Context, code *domain.VerificationCode, _ time.Duration) error {
	query := `INSERT INTO verification_codes (` + codeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email, purpose) DO UPDATE SET
			id = EXCLUDED.id,
			code_hash = EXCLUDED.code_hash,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`

	var payload []byte
	if len(code.Payload) > 0 {
		payload = code.Payload
	}

	_, err := r.conn(ctx).Exec(ctx, query,
		code.ID,
		code.Email,
		string(code.Purpose),
		code.CodeHash,
		payload,
		code.CreatedAt,
		code.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}

	return nil
}

func (r *CodeRepository) Find(ctx context.Context, email string, purpose domain.CodePurpose) (*domain.VerificationCode, error) {
	query := `SELECT ` + codeColumns + ` FROM verification_codes WHERE email = $1 AND purpose = $2`

	code, err := scanCode(r.conn(ctx).QueryRow(ctx, query, email, string(purpose)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return code, nil
}

// Consume is a single DELETE ... RETURNING: of two concurrent callers only one
// gets the row back.
func (r *CodeRepository) Consume(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, notBefore time.Time) (*domain.VerificationCode, error) {
	query := `DELETE FROM verification_codes
		WHERE email = $1 AND purpose = $2 AND code_hash = $3 AND updated_at > $4
		RETURNING ` + codeColumns

	code, err := scanCode(r.conn(ctx).QueryRow(ctx, query, email, string(purpose), codeHash, notBefore))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCodeInvalid
		}
		return nil, fmt.Errorf("failed to consume verification code: %w", err)
	}

	return code, nil
}

func (r *CodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn(ctx).Exec(ctx, `DELETE FROM verification_codes WHERE updated_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanCode(row pgx.Row) (*domain.VerificationCode, error) {
	var (
		code    domain.VerificationCode
		purpose string
		payload []byte
	)
	if err := row.Scan(
		&code.ID,
		&code.Email,
		&purpose,
		&code.CodeHash,
		&payload,
		&code.CreatedAt,
		&code.UpdatedAt,
	); err != nil {
		return nil, err
	}
	code.Purpose = domain.CodePurpose(purpose)
	code.Payload = payload
	return &code, nil
}
