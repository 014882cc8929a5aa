package memory

import (
	"context"
	"time"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

type BusinessRepository struct {
	store *Store
}

func NewBusinessRepository(store *Store) *BusinessRepository {
	return &BusinessRepository{store: store}
}

func (r *BusinessRepository) Create(ctx context.Context, business *domain.Business) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.businesses[business.ID]; ok {
		return repository.ErrAlreadyExists
	}
	for _, existing := range s.businesses {
		if fold(existing.Email) == fold(business.Email) {
			return repository.ErrAlreadyExists
		}
	}

	s.businesses[business.ID] = *business
	id := business.ID
	s.record(ctx, func() { delete(s.businesses, id) })
	return nil
}

func (r *BusinessRepository) FindByID(_ context.Context, id string) (*domain.Business, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	business, ok := s.businesses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &business, nil
}

func (r *BusinessRepository) FindByEmail(_ context.Context, email string) (*domain.Business, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, business := range s.businesses {
		if fold(business.Email) == fold(email) {
			found := business
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *BusinessRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	business, ok := s.businesses[id]
	if !ok {
		return repository.ErrNotFound
	}
	previous := business

	business.Status = status
	business.UpdatedAt = time.Now().UTC()
	s.businesses[id] = business
	s.record(ctx, func() { s.businesses[id] = previous })
	return nil
}
