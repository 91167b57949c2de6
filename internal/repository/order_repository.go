package repository

import (
	"context"

	"comazon/internal/domain"
)

type OrderRepository interface {
	// CreateWithStock persists the order with its items and applies every
	// decrement in one transaction. A decrement that would drive stock
	// below zero aborts the whole unit with domain.ErrInsufficientStock.
	CreateWithStock(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, opts ListOptions) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, id string) (bool, error)
}
