package repository

import (
	"context"

	"comazon/internal/domain"

	"github.com/shopspring/decimal"
)

type ProductPatch struct {
	Name     *string
	Price    *decimal.Decimal
	Category *string
	Stock    *int
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Category == nil && p.Stock == nil
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindByIDs returns the products that exist among ids in a single read.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	List(ctx context.Context, opts ListOptions) ([]domain.Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}
