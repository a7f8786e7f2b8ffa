package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/restockhq/restock-backend/pkg/db/models"
	"github.com/restockhq/restock-backend/pkg/pagination"
)

// ProductRepository defines the persistence surface of the catalog.
type ProductRepository interface {
	CreateProduct(context.Context, *models.Product) (*models.Product, error)
	UpdateProduct(context.Context, *models.Product) (*models.Product, error)
	FindByID(context.Context, uuid.UUID, uuid.UUID) (*models.Product, error)
	ListProducts(context.Context, uuid.UUID, ListFilters, pagination.Params) ([]models.Product, int64, error)
	UpdateStock(context.Context, uuid.UUID, uuid.UUID, int) error
}

// Repository wires catalog persistence over GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateProduct inserts the product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves all product columns.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads one product scoped to the business.
func (r *Repository) FindByID(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Category").
		Where("business_id = ? AND deleted_at IS NULL", businessID).
		First(&product, "id = ?", productID).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts applies the filters and returns one page plus the total count.
func (r *Repository) ListProducts(ctx context.Context, businessID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Product, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("business_id = ? AND deleted_at IS NULL", businessID)

	if filters.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filters.SupplierID)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	var products []models.Product
	err := query.
		Preload("Supplier").
		Preload("Category").
		Order("code ASC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// UpdateStock overwrites current_stock for one product.
func (r *Repository) UpdateStock(ctx context.Context, businessID, productID uuid.UUID, stock int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND business_id = ? AND deleted_at IS NULL", productID, businessID).
		Update("current_stock", stock)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
