package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

const searchLimit = 50

// CatalogService is the read-only product lookup. Product pages are cached
// in Redis by slug when a client is configured.
type CatalogService struct {
	store       repository.Store
	redisClient *redis.Client
	cacheTTL    time.Duration
	log         *slog.Logger
}

func NewCatalogService(store repository.Store, redisClient *redis.Client, cacheTTL time.Duration, log *slog.Logger) *CatalogService {
	return &CatalogService{store: store, redisClient: redisClient, cacheTTL: cacheTTL, log: log}
}

func (s *CatalogService) List(ctx context.Context, category string) ([]model.Product, error) {
	products, err := s.store.Products().List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}
	cacheKey := "product:" + slug

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Bytes(); err == nil {
			var p model.Product
			if json.Unmarshal(cached, &p) == nil {
				return &p, nil
			}
		}
	}

	product, err := s.store.Products().GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			if err := s.redisClient.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				s.log.Warn("cache product", "slug", slug, "error", err)
			}
		}
	}
	return product, nil
}

// Search matches product names containing q. An empty query matches nothing.
func (s *CatalogService) Search(ctx context.Context, q string) ([]model.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Product{}, nil
	}
	products, err := s.store.Products().Search(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.store.Products().Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}
