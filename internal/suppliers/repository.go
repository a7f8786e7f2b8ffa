package suppliers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/restockhq/restock-backend/pkg/db/models"
)

// Repository handles supplier and category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to the lookup tables.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) ListSuppliers(ctx context.Context, businessID uuid.UUID) ([]models.Supplier, error) {
	var rows []models.Supplier
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindSupplier(ctx context.Context, businessID, supplierID uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, supplierID).
		First(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *Repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *Repository) SaveSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// CountSupplierProducts reports how many products reference the supplier.
func (r *Repository) CountSupplierProducts(ctx context.Context, businessID, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("business_id = ? AND supplier_id = ?", businessID, supplierID).
		Count(&count).Error
	return count, err
}

func (r *Repository) DeleteSupplier(ctx context.Context, businessID, supplierID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, supplierID).
		Delete(&models.Supplier{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListCategories(ctx context.Context, businessID uuid.UUID) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindCategory(ctx context.Context, businessID, categoryID uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, categoryID).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// CountCategoryProducts reports how many products reference the category.
func (r *Repository) CountCategoryProducts(ctx context.Context, businessID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("business_id = ? AND category_id = ?", businessID, categoryID).
		Count(&count).Error
	return count, err
}

func (r *Repository) DeleteCategory(ctx context.Context, businessID, categoryID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, categoryID).
		Delete(&models.Category{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
