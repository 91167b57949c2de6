package infra

import (
	"context"

	"comazon/internal/domain"
	"comazon/internal/infra/cache"
)

type ProductCache interface {
	// GetProduct returns nil, nil on a cache miss.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProduct(ctx context.Context, p *domain.Product) error
	InvalidateProducts(ctx context.Context, ids ...string) error
}

type IdempotencyStore interface {
	// Claim returns false when the key is already held.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

var (
	_ ProductCache     = (*cache.RedisCache)(nil)
	_ IdempotencyStore = (*cache.RedisCache)(nil)
)
