package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"comazon/internal/domain"
	"comazon/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateWithStock(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error {
	for _, d := range decrements {
		if d.Quantity <= 0 {
			return &domain.ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("stock decrement for product %s must be positive, got %d", d.ProductID, d.Quantity),
			}
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: %w", errMissingReference, err)
			}
			return err
		}

		now := time.Now()
		for _, d := range decrements {
			// Guarded decrement: the row only matches while enough stock is on hand.
			result := tx.Model(&domain.Product{}).
				Where("id = ? AND stock >= ?", d.ProductID, d.Quantity).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock - ?", d.Quantity),
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return &domain.InsufficientStockError{Shortages: []domain.Shortage{
					{ProductID: d.ProductID, Requested: d.Quantity, Available: -1},
				}}
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("CreateWithStock rolled back for order %s: %v", order.ID, err)
		if errors.Is(err, errMissingReference) {
			return r.missingReference(ctx, order, decrements, err)
		}
		return translateError(err)
	}

	log.Printf("Order saved successfully with ID: %s (%d items)", order.ID, len(order.OrderItems))
	return nil
}

// missingReference names what disappeared after the caller's snapshot: the
// owner, or one or more of the ordered products.
func (r *orderRepo) missingReference(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement, cause error) error {
	db := r.db.WithContext(ctx)

	var users int64
	if err := db.Model(&domain.User{}).Where("id = ?", order.UserID).Count(&users).Error; err != nil {
		return err
	}
	if users == 0 {
		return domain.ErrOwnerNotFound
	}

	ids := make([]string, 0, len(decrements))
	for _, d := range decrements {
		ids = append(ids, d.ProductID)
	}
	var present []string
	if err := db.Model(&domain.Product{}).Where("id IN ?", ids).Pluck("id", &present).Error; err != nil {
		return err
	}
	found := make(map[string]bool, len(present))
	for _, id := range present {
		found[id] = true
	}

	var shortages []domain.Shortage
	for _, d := range decrements {
		if !found[d.ProductID] {
			shortages = append(shortages, domain.Shortage{ProductID: d.ProductID, Requested: d.Quantity, Unknown: true})
		}
	}
	if len(shortages) > 0 {
		return &domain.InsufficientStockError{Shortages: shortages}
	}
	return translateError(cause)
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC, order_items.id ASC")
		}).
		Preload("OrderItems.Product").
		First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByID error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, opts repository.ListOptions) ([]domain.Order, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{}).Preload("OrderItems")
	if opts.UserID != "" {
		q = q.Where("user_id = ?", opts.UserID)
	}

	out := []domain.Order{}
	if err := paginate(q, opts).Order(orderClause(opts.Sort, "orders")).Find(&out).Error; err != nil {
		log.Printf("List orders error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	found := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.Order
		if err := tx.First(&o, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}
		return tx.Model(&o).Update("status", status).Error
	})
	if err != nil {
		log.Printf("UpdateStatus error: %v", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *orderRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.Order{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		log.Printf("Delete order error: %v", err)
		return false, err
	}
	return deleted, nil
}
