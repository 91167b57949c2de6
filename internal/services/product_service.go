package services

import (
	"context"
	"log"

	"comazon/internal/domain"
	"comazon/internal/infra"
	"comazon/internal/repository"
)

type ProductService struct {
	repo  repository.ProductRepository
	cache infra.ProductCache
}

func NewProductService(r repository.ProductRepository) *ProductService {
	return &ProductService{repo: r}
}

func (s *ProductService) SetCache(c infra.ProductCache) {
	s.cache = c
}

func (s *ProductService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := domain.ValidateMoney("price", p.Price); err != nil {
		return nil, err
	}
	if p.Stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Message: "must not be negative"}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) GetProductById(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, id)
		if err != nil {
			log.Printf("Product cache read failed for %s: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, p); err != nil {
			log.Printf("Product cache write failed for %s: %v", id, err)
		}
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context, opts repository.ListOptions) ([]domain.Product, error) {
	return s.repo.List(ctx, opts)
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch repository.ProductPatch) (*domain.Product, error) {
	if patch.Price != nil {
		if err := domain.ValidateMoney("price", *patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Message: "must not be negative"}
	}

	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	s.invalidate(ctx, id)
	return p, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrProductNotFound
	}
	s.invalidate(ctx, id)
	return nil
}

// WarmupProductCache loads the newest products into the cache.
func (s *ProductService) WarmupProductCache(ctx context.Context, limit int) error {
	if s.cache == nil || limit <= 0 {
		return nil
	}

	products, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Sort: repository.SortNewest})
	if err != nil {
		return err
	}
	for i := range products {
		if err := s.cache.SetProduct(ctx, &products[i]); err != nil {
			log.Printf("Failed to warm up cache for product %s: %v", products[i].ID, err)
		}
	}
	log.Printf("Warmed product cache with %d products", len(products))
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx, id); err != nil {
		log.Printf("Failed to invalidate product cache for %s: %v", id, err)
	}
}
