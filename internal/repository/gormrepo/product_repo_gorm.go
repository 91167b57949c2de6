package gormrepo

import (
	"context"
	"errors"
	"log"

	"comazon/internal/domain"
	"comazon/internal/repository"

	"gorm.io/gorm"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		log.Printf("Create product error: %v", err)
		return translateError(err)
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByID product error: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	out := []domain.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		log.Printf("FindByIDs product error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, opts repository.ListOptions) ([]domain.Product, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}

	out := []domain.Product{}
	if err := paginate(q, opts).Order(orderClause(opts.Sort, "products")).Find(&out).Error; err != nil {
		log.Printf("List products error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *productRepo) Update(ctx context.Context, id string, patch repository.ProductPatch) (*domain.Product, error) {
	var p domain.Product
	found := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}

		fields := map[string]any{}
		if patch.Name != nil {
			fields["name"] = *patch.Name
		}
		if patch.Price != nil {
			fields["price"] = *patch.Price
		}
		if patch.Category != nil {
			fields["category"] = *patch.Category
		}
		if patch.Stock != nil {
			fields["stock"] = *patch.Stock
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&p).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&p, "id = ?", id).Error
	})
	if err != nil {
		log.Printf("Update product error: %v", err)
		return nil, translateError(err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_saved_items WHERE product_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.Product{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		log.Printf("Delete product error: %v", err)
		return false, translateError(err)
	}
	return deleted, nil
}
