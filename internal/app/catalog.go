package app

import (
	"context"
	"fmt"
	"time"

	"online_store/internal/domain"
)

// CatalogService serves the read side of the catalog. Single products are
// cached; the review service retires them whenever their rating changes.
type CatalogService struct {
	repo  domain.CatalogRepository
	cache readCache
}

func NewCatalogService(r domain.CatalogRepository, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: r, cache: readCache{c: c, ttl: ttl}}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cs, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cs, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, q domain.ProductsQuery) ([]domain.Product, error) {
	ps, err := s.repo.ListProducts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return ps, nil
}

// GetProduct returns an active product; inactive ones are reported as missing.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	gen, useCache := s.cache.generation(ctx, productGenKey(id))
	key := productKey(id, gen)
	var p domain.Product
	if useCache && s.cache.get(ctx, key, &p) {
		return p, nil
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !p.IsActive {
		return domain.Product{}, domain.NotFound("product", id)
	}
	if useCache {
		s.cache.set(ctx, key, p)
	}
	return p, nil
}
