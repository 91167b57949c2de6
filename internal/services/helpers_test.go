package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"comazon/internal/domain"
	"comazon/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	testUserID    = "user-1"
	testProductID = "product-1"
	testOrderID   = "order-1"
)

func newProduct(id string, price string, stock int) *domain.Product {
	return &domain.Product{
		ID:        id,
		Name:      "Product " + id,
		Price:     decimal.RequireFromString(price),
		Category:  "books",
		Stock:     stock,
		CreatedAt: time.Now(),
	}
}

func newOrder(id string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:        id,
		UserID:    testUserID,
		Status:    status,
		CreatedAt: time.Now(),
		OrderItems: []domain.OrderItem{
			{ID: "item-1", OrderID: id, ProductID: testProductID, Quantity: 2, UnitPrice: decimal.RequireFromString("10")},
		},
	}
}

func item(productID string, qty int) domain.RequestedItem {
	return domain.RequestedItem{ProductID: productID, Quantity: qty}
}

// memStore keeps products and orders in memory and applies stock
// decrements with the same guard the SQL repository uses.
type memStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	orders   map[string]domain.Order
}

func newMemStore(products ...*domain.Product) *memStore {
	s := &memStore{
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
	}
	for _, p := range products {
		s.products[p.ID] = *p
	}
	return s
}

func (s *memStore) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memOrders struct{ *memStore }

type memProducts struct{ *memStore }

var (
	_ repository.OrderRepository   = memOrders{}
	_ repository.ProductRepository = memProducts{}
)

func (s memOrders) CreateWithStock(_ context.Context, order *domain.Order, decrements []domain.StockDecrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range decrements {
		if d.Quantity <= 0 {
			return &domain.ValidationError{Field: "quantity", Message: "stock decrement must be positive"}
		}
		p, ok := s.products[d.ProductID]
		if !ok || p.Stock < d.Quantity {
			return &domain.InsufficientStockError{Shortages: []domain.Shortage{
				{ProductID: d.ProductID, Requested: d.Quantity, Available: -1},
			}}
		}
	}
	for _, d := range decrements {
		p := s.products[d.ProductID]
		p.Stock -= d.Quantity
		s.products[d.ProductID] = p
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	for i := range order.OrderItems {
		order.OrderItems[i].ID = uuid.NewString()
		order.OrderItems[i].OrderID = order.ID
	}
	s.orders[order.ID] = *order
	return nil
}

func (s memOrders) FindByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s memOrders) List(_ context.Context, opts repository.ListOptions) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for _, o := range s.orders {
		if opts.UserID == "" || o.UserID == opts.UserID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	s.orders[id] = o
	return &o, nil
}

func (s memOrders) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

func (s memProducts) Create(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.products[p.ID] = *p
	return nil
}

func (s memProducts) FindByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s memProducts) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s memProducts) List(_ context.Context, _ repository.ListOptions) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s memProducts) Update(_ context.Context, _ string, _ repository.ProductPatch) (*domain.Product, error) {
	return nil, errors.New("not supported by memStore")
}

func (s memProducts) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}
