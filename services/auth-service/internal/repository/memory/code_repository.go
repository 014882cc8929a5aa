package memory

import (
	"context"
	"time"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

type CodeRepository struct {
	store *Store
}

func NewCodeRepository(store *Store) *CodeRepository {
	return &CodeRepository{store: store}
}

func codeKey(email string, purpose domain.CodePurpose) string {
	return string(purpose) + "|" + fold(email)
}

// Save replaces any code for the same email and purpose. Expiry is checked
// against UpdatedAt on consume, so ttl is not stored.
func (r *CodeRepository) Save(ctx context.Context, code *domain.VerificationCode, _ time.Duration) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := codeKey(code.Email, code.Purpose)
	previous, existed := s.codes[key]
	s.codes[key] = *code
	s.record(ctx, func() {
		if existed {
			s.codes[key] = previous
		} else {
			delete(s.codes, key)
		}
	})
	return nil
}

func (r *CodeRepository) Find(_ context.Context, email string, purpose domain.CodePurpose) (*domain.VerificationCode, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[codeKey(email, purpose)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &code, nil
}

func (r *CodeRepository) Consume(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, notBefore time.Time) (*domain.VerificationCode, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := codeKey(email, purpose)
	code, ok := s.codes[key]
	if !ok || code.CodeHash != codeHash || !code.UpdatedAt.After(notBefore) {
		return nil, repository.ErrCodeInvalid
	}

	delete(s.codes, key)
	s.record(ctx, func() { s.codes[key] = code })
	return &code, nil
}

func (r *CodeRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, code := range s.codes {
		if !code.UpdatedAt.After(before) {
			delete(s.codes, key)
			deleted++
		}
	}
	return deleted, nil
}
