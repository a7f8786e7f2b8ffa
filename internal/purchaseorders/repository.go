package purchaseorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/restockhq/restock-backend/pkg/db/models"
	"github.com/restockhq/restock-backend/pkg/enums"
	"github.com/restockhq/restock-backend/pkg/pagination"
)

// OrderRepository defines the persistence surface of the lifecycle manager.
type OrderRepository interface {
	CreateOrder(context.Context, *models.PurchaseOrder) (*models.PurchaseOrder, error)
	ReplaceItems(ctx context.Context, order *models.PurchaseOrder, items []models.PurchaseOrderItem) error
	FindByID(context.Context, uuid.UUID, uuid.UUID) (*models.PurchaseOrder, error)
	ListOrders(context.Context, uuid.UUID, ListFilters, pagination.Params) ([]models.PurchaseOrder, int64, error)
	ConfirmOrder(ctx context.Context, businessID, orderID uuid.UUID, at time.Time) (bool, error)
	SoftDeleteDraft(ctx context.Context, businessID, orderID uuid.UUID) (bool, error)
}

// Repository wires order persistence over GORM.
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

// CreateOrder inserts the order with its items in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ReplaceItems swaps the full item set and saves the order header atomically.
func (r *Repository) ReplaceItems(ctx context.Context, order *models.PurchaseOrder, items []models.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", order.ID).Delete(&models.PurchaseOrderItem{}).Error; err != nil {
			return fmt.Errorf("deleting old items: %w", err)
		}
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].PurchaseOrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("inserting items: %w", err)
			}
		}
		order.Items = items
		return tx.Omit("Items").Save(order).Error
	})
}

// FindByID loads one order with items and names, scoped to the business.
func (r *Repository) FindByID(ctx context.Context, businessID, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Supplier").
		Preload("Category").
		Preload("CreatedByUser").
		Where("business_id = ? AND deleted_at IS NULL", businessID).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders applies the filters and returns one page plus the total count.
func (r *Repository) ListOrders(ctx context.Context, businessID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.PurchaseOrder, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("business_id = ? AND deleted_at IS NULL", businessID)

	if filters.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filters.SupplierID)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	var orders []models.PurchaseOrder
	err := query.
		Preload("Items").
		Preload("Supplier").
		Preload("Category").
		Preload("CreatedByUser").
		Order("created_at DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

// ConfirmOrder flips a draft to confirmed. The status guard in the WHERE
// clause makes the transition one-way at the database level; the returned
// bool reports whether a row actually moved.
func (r *Repository) ConfirmOrder(ctx context.Context, businessID, orderID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND business_id = ? AND status = ? AND deleted_at IS NULL", orderID, businessID, enums.PurchaseOrderStatusDraft).
		Updates(map[string]any{
			"status":       enums.PurchaseOrderStatusConfirmed,
			"confirmed_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SoftDeleteDraft marks a draft deleted. Confirmed orders never match.
func (r *Repository) SoftDeleteDraft(ctx context.Context, businessID, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND business_id = ? AND status = ? AND deleted_at IS NULL", orderID, businessID, enums.PurchaseOrderStatusDraft).
		Update("deleted_at", time.Now().UTC())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ExpireStaleDrafts soft-deletes drafts untouched since the cutoff.
func (r *Repository) ExpireStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("status = ? AND deleted_at IS NULL AND updated_at < ?", enums.PurchaseOrderStatusDraft, cutoff).
		Update("deleted_at", time.Now().UTC())
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// PurgeDeletedDrafts hard-deletes drafts that were soft-deleted before the
// cutoff. Items go with them through the FK cascade.
func (r *Repository) PurgeDeletedDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND deleted_at IS NOT NULL AND deleted_at < ?", enums.PurchaseOrderStatusDraft, cutoff).
		Delete(&models.PurchaseOrder{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
