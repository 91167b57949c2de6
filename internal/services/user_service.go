package services

import (
	"context"

	"comazon/internal/domain"
	"comazon/internal/repository"
)

const defaultTheme = "light"

type UserService struct {
	repo     repository.UserRepository
	products repository.ProductRepository
}

func NewUserService(r repository.UserRepository, products repository.ProductRepository) *UserService {
	return &UserService{repo: r, products: products}
}

// CreateUser persists the user; a preference row is always created with it.
func (s *UserService) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.Preference == nil {
		u.Preference = &domain.UserPreference{}
	}
	if u.Preference.Theme == "" {
		u.Preference.Theme = defaultTheme
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUserById(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, opts repository.ListOptions) ([]domain.User, error) {
	return s.repo.List(ctx, opts)
}

func (s *UserService) UpdateUser(ctx context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	u, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *UserService) SavedItems(ctx context.Context, userID string) ([]domain.Product, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.SavedItems(ctx, userID)
}

func (s *UserService) SaveItem(ctx context.Context, userID, productID string) ([]domain.Product, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	if err := s.repo.AddSavedItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.repo.SavedItems(ctx, userID)
}

func (s *UserService) RemoveSavedItem(ctx context.Context, userID, productID string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	removed, err := s.repo.RemoveSavedItem(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrProductNotFound
	}
	return nil
}

func (s *UserService) requireUser(ctx context.Context, id string) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return nil
}
