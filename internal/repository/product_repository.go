package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/model"
)

// listingOrder puts pinned products first, newest first within each group.
const listingOrder = "pinned DESC, created_at DESC, id DESC"

var productMutableColumns = []string{
	"title", "description", "price", "discount", "pinned", "type",
	"file_url", "funpay_url", "star_url",
}

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	// Update overwrites every mutable column. It returns gorm.ErrRecordNotFound
	// when the product does not exist and leaves CreatedAt as stored.
	Update(ctx context.Context, product *model.Product) error
	// Delete removes the product and reports whether a row was removed.
	Delete(ctx context.Context, id uint) (bool, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// List returns all products in listing order.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	products := make([]model.Product, 0)
	if err := r.db.WithContext(ctx).Order(listingOrder).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID finds a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a product; the database assigns ID and CreatedAt.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update replaces the mutable fields of an existing product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	var existing model.Product
	if err := r.db.WithContext(ctx).First(&existing, product.ID).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&existing).Select(productMutableColumns).Updates(product).Error; err != nil {
		return err
	}
	product.CreatedAt = existing.CreatedAt
	return nil
}

// Delete removes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
