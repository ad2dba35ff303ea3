package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const (
	// Listings are cached under productListCacheKey plus the current
	// generation. Every mutation bumps the generation, so a snapshot read
	// before a write can only land under a key nobody reads any more.
	productListCacheKey  = "products:list:"
	productGenerationKey = "products:gen"
)

// ProductService handles catalog operations. Authorization happens in the
// router; every mutation here assumes an admin caller.
type ProductService interface {
	List(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, fields model.ProductFields) (*model.Product, error)
	Update(ctx context.Context, id uint, fields model.ProductFields) (*model.Product, error)
	// Delete succeeds whether or not the product existed.
	Delete(ctx context.Context, id uint) error
}

type productService struct {
	repo     repository.ProductRepository
	cache    *cache.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewProductService creates a new product service. A nil cache or a
// non-positive cacheTTL disables listing caching; mutations still bump the
// listing generation so other processes sharing the cache see them.
func NewProductService(repo repository.ProductRepository, cache *cache.Client, cacheTTL time.Duration, logger *slog.Logger) ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &productService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// List returns products pinned first, then newest first.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	caching := s.cache.Enabled() && s.cacheTTL > 0

	var key string
	if caching {
		key = s.listKey(ctx)
		if data, _ := s.cache.Get(ctx, key); data != nil {
			var cached []model.Product
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if caching {
		if payload, err := json.Marshal(products); err == nil {
			_ = s.cache.Set(ctx, key, payload, s.cacheTTL)
		}
	}
	return products, nil
}

func (s *productService) listKey(ctx context.Context) string {
	gen, _ := s.cache.Get(ctx, productGenerationKey)
	if gen == nil {
		return productListCacheKey + "0"
	}
	return productListCacheKey + string(gen)
}

// Create validates and stores a new product.
func (s *productService) Create(ctx context.Context, fields model.ProductFields) (*model.Product, error) {
	if err := ValidateProductFields(fields); err != nil {
		return nil, err
	}

	product := &model.Product{}
	fields.Apply(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "product created", "product_id", product.ID, "type", product.Type)
	return product, nil
}

// Update replaces every mutable field of an existing product.
func (s *productService) Update(ctx context.Context, id uint, fields model.ProductFields) (*model.Product, error) {
	if err := ValidateProductFields(fields); err != nil {
		return nil, err
	}

	product := &model.Product{ID: id}
	fields.Apply(product)
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidate(ctx)
	return product, nil
}

// Delete removes a product. A missing product is not an error.
func (s *productService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidate(ctx)
	if deleted {
		s.logger.InfoContext(ctx, "product deleted", "product_id", id)
	}
	return nil
}

// invalidate bumps the listing generation. The store write has already
// happened, so the bump is detached from request cancellation.
func (s *productService) invalidate(ctx context.Context) {
	if _, err := s.cache.Incr(context.WithoutCancel(ctx), productGenerationKey); err != nil {
		s.logger.WarnContext(ctx, "product listing cache not invalidated", "error", err)
	}
}

// ValidateProductFields checks the catalog rules shared by create and update.
func ValidateProductFields(f model.ProductFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return apperrors.InvalidArgument("title is required")
	}
	if !f.Type.Valid() {
		return apperrors.ErrInvalidProductType
	}
	if f.Price < 0 {
		return apperrors.InvalidArgument("price must not be negative")
	}
	if f.Discount < 0 {
		return apperrors.InvalidArgument("discount must not be negative")
	}
	return nil
}
