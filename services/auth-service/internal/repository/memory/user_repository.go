package memory

import (
	"context"
	"sort"
	"time"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return repository.ErrAlreadyExists
	}
	for _, existing := range s.users {
		if fold(existing.Email) == fold(user.Email) || fold(existing.Username) == fold(user.Username) {
			return repository.ErrAlreadyExists
		}
	}

	s.users[user.ID] = *user
	id := user.ID
	s.record(ctx, func() { delete(s.users, id) })
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return fold(u.Email) == fold(email) })
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return fold(u.Username) == fold(username) })
}

func (r *UserRepository) FindByIDInBusiness(_ context.Context, businessID, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id && u.BusinessID == businessID })
}

func (r *UserRepository) ListByBusiness(_ context.Context, businessID string) ([]*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*domain.User, 0)
	for _, user := range s.users {
		if user.BusinessID == businessID {
			u := user
			users = append(users, &u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	return r.update(ctx, id, func(u *domain.User) { u.Status = status })
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.update(ctx, id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if match(&user) {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) update(ctx context.Context, id string, apply func(*domain.User)) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	previous := user

	apply(&user)
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	s.record(ctx, func() { s.users[id] = previous })
	return nil
}
