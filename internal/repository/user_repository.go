package repository

import (
	"context"

	"comazon/internal/domain"
)

type UserPatch struct {
	Email        *string
	Name         *string
	ReceiveEmail *bool
	Theme        *string
}

type UserRepository interface {
	// Create inserts the user together with its preference row.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) (bool, error)

	SavedItems(ctx context.Context, userID string) ([]domain.Product, error)
	AddSavedItem(ctx context.Context, userID, productID string) error
	RemoveSavedItem(ctx context.Context, userID, productID string) (bool, error)
}
