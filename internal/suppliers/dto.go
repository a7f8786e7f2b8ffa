package suppliers

import (
	"time"

	"github.com/google/uuid"

	"github.com/restockhq/restock-backend/pkg/db/models"
)

// SupplierDTO is the response payload for one purchasing counterparty.
type SupplierDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSupplierDTO maps the model onto the response payload.
func NewSupplierDTO(supplier *models.Supplier) *SupplierDTO {
	if supplier == nil {
		return nil
	}
	return &SupplierDTO{
		ID:        supplier.ID,
		Name:      supplier.Name,
		Email:     supplier.Email,
		Phone:     supplier.Phone,
		IsActive:  supplier.IsActive,
		CreatedAt: supplier.CreatedAt,
		UpdatedAt: supplier.UpdatedAt,
	}
}

// CategoryDTO is the response payload for one product grouping.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategoryDTO maps the model onto the response payload.
func NewCategoryDTO(category *models.Category) *CategoryDTO {
	if category == nil {
		return nil
	}
	return &CategoryDTO{
		ID:        category.ID,
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}
