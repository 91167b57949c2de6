package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"comazon/internal/domain"
	"comazon/internal/infra"
	rabbit "comazon/internal/infra/rabbitmq"
	"comazon/internal/repository"
)

type OrderService struct {
	repo        repository.OrderRepository
	products    repository.ProductRepository
	users       repository.UserRepository
	publisher   rabbit.PublisherInterface
	cache       infra.ProductCache
	idempotency infra.IdempotencyStore

	events sync.WaitGroup
}

type PlaceOrderRequest struct {
	UserID         string
	Items          []domain.RequestedItem
	IdempotencyKey string
}

func NewOrderService(r repository.OrderRepository, products repository.ProductRepository, users repository.UserRepository, pub rabbit.PublisherInterface) *OrderService {
	return &OrderService{
		repo:      r,
		products:  products,
		users:     users,
		publisher: pub,
	}
}

func (s *OrderService) SetCache(c infra.ProductCache) {
	s.cache = c
}

func (s *OrderService) SetIdempotencyStore(store infra.IdempotencyStore) {
	s.idempotency = store
}

// PlaceOrder validates stock for every requested line and, when all lines
// can be served, creates the order and decrements stock as one unit. On
// any failure nothing is persisted.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		ok, err := s.idempotency.Claim(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	order, err := s.placeOrder(ctx, req.UserID, req.Items)
	if err != nil {
		if req.IdempotencyKey != "" && s.idempotency != nil {
			if relErr := s.idempotency.Release(context.Background(), req.IdempotencyKey); relErr != nil {
				log.Printf("Failed to release idempotency key %s: %v", req.IdempotencyKey, relErr)
			}
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, userID string, items []domain.RequestedItem) (*domain.Order, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrOwnerNotFound
	}

	demand, ids, err := aggregateDemand(items)
	if err != nil {
		return nil, err
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]domain.Product, len(found))
	for _, p := range found {
		snapshot[p.ID] = p
	}

	if shortages := checkSufficiency(demand, ids, snapshot); len(shortages) > 0 {
		return nil, &domain.InsufficientStockError{Shortages: shortages}
	}

	order := buildOrder(userID, items, snapshot)
	decrements := make([]domain.StockDecrement, 0, len(ids))
	for _, id := range ids {
		decrements = append(decrements, domain.StockDecrement{ProductID: id, Quantity: demand[id]})
	}

	if err := s.repo.CreateWithStock(ctx, order, decrements); err != nil {
		return nil, err
	}

	s.invalidate(ctx, ids...)
	s.publish(domain.EventOrderCreated, domain.NewOrderCreatedEvent(order))

	return order, nil
}

func validateItems(items []domain.RequestedItem) error {
	if len(items) == 0 {
		return &domain.ValidationError{Field: "orderItems", Message: "must contain at least one item"}
	}
	for i, it := range items {
		if it.ProductID == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("orderItems[%d].productId", i), Message: "is required"}
		}
		if it.Quantity <= 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("orderItems[%d].quantity", i), Message: "must be greater than 0"}
		}
		if it.Quantity > domain.MaxItemQuantity {
			return &domain.ValidationError{Field: fmt.Sprintf("orderItems[%d].quantity", i), Message: fmt.Sprintf("must not exceed %d", domain.MaxItemQuantity)}
		}
		if it.UnitPrice != nil {
			if err := domain.ValidateMoney(fmt.Sprintf("orderItems[%d].unitPrice", i), *it.UnitPrice); err != nil {
				return err
			}
		}
	}
	return nil
}

// aggregateDemand sums requested quantity per product. The returned ids are
// sorted so every transaction locks product rows in the same order. A
// product's total never exceeds MaxItemQuantity, so the sum cannot wrap.
func aggregateDemand(items []domain.RequestedItem) (map[string]int, []string, error) {
	demand := make(map[string]int, len(items))
	for i, it := range items {
		if it.Quantity <= 0 || it.Quantity > domain.MaxItemQuantity-demand[it.ProductID] {
			return nil, nil, &domain.ValidationError{
				Field:   fmt.Sprintf("orderItems[%d].quantity", i),
				Message: fmt.Sprintf("total quantity for product %s must be between 1 and %d", it.ProductID, domain.MaxItemQuantity),
			}
		}
		demand[it.ProductID] += it.Quantity
	}
	ids := make([]string, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return demand, ids, nil
}

func checkSufficiency(demand map[string]int, ids []string, snapshot map[string]domain.Product) []domain.Shortage {
	var shortages []domain.Shortage
	for _, id := range ids {
		p, ok := snapshot[id]
		if !ok {
			shortages = append(shortages, domain.Shortage{ProductID: id, Requested: demand[id], Unknown: true})
			continue
		}
		if p.Stock < demand[id] {
			shortages = append(shortages, domain.Shortage{ProductID: id, Requested: demand[id], Available: p.Stock})
		}
	}
	return shortages
}

func buildOrder(userID string, items []domain.RequestedItem, snapshot map[string]domain.Product) *domain.Order {
	order := &domain.Order{
		UserID:     userID,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now(),
		OrderItems: make([]domain.OrderItem, 0, len(items)),
	}
	for _, it := range items {
		price := snapshot[it.ProductID].Price
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		order.OrderItems = append(order.OrderItems, domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: price,
		})
	}
	return order
}

func (s *OrderService) GetOrderById(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, opts repository.ListOptions) ([]domain.Order, error) {
	return s.repo.List(ctx, opts)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.List(ctx, repository.ListOptions{UserID: userID, Sort: repository.SortNewest})
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}

	o, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}

	s.publish(domain.EventOrderStatusUpdated, domain.OrderStatusUpdatedEvent{
		OrderID:   o.ID,
		Status:    o.Status,
		UpdatedAt: o.UpdatedAt,
	})
	return o, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrOrderNotFound
	}

	s.publish(domain.EventOrderDeleted, domain.OrderDeletedEvent{OrderID: id})
	return nil
}

// Drain blocks until every in-flight event publish has finished.
func (s *OrderService) Drain() {
	s.events.Wait()
}

func (s *OrderService) invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx, ids...); err != nil {
		log.Printf("Failed to invalidate product cache for %v: %v", ids, err)
	}
}

func (s *OrderService) publish(pattern string, evt any) {
	if s.publisher == nil {
		return
	}
	s.events.Add(1)
	go func() {
		defer s.events.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log.Printf("Publishing %s event: %+v", pattern, evt)
		if err := s.publisher.Publish(ctx, pattern, evt); err != nil {
			log.Printf("Failed to publish event: %v", err)
		} else {
			log.Printf("Successfully published %s event", pattern)
		}
	}()
}
