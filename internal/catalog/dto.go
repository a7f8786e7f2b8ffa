package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/pkg/db/models"
)

// ListFilters describe the supported filter knobs for the catalog browse endpoint.
type ListFilters struct {
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
	Search     string     `json:"q,omitempty"`
}

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	SupplierCode    *string         `json:"supplier_code,omitempty"`
	Description     string          `json:"description"`
	Details         *string         `json:"details,omitempty"`
	SupplierID      *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName    *string         `json:"supplier_name,omitempty"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName    *string         `json:"category_name,omitempty"`
	ListPrice       decimal.Decimal `json:"list_price"`
	Discount1       decimal.Decimal `json:"discount_1"`
	Discount2       decimal.Decimal `json:"discount_2"`
	Discount3       decimal.Decimal `json:"discount_3"`
	DiscountDisplay *string         `json:"discount_display,omitempty"`
	ExtraPct        decimal.Decimal `json:"extra_pct"`
	NetPrice        decimal.Decimal `json:"net_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	IVARate         decimal.Decimal `json:"iva_rate"`
	CurrentStock    int             `json:"current_stock"`
	MinimumStock    int             `json:"minimum_stock"`
	Unit            string          `json:"unit"`
	IsActive        bool            `json:"is_active"`
	IsLowStock      bool            `json:"is_low_stock"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewProductDTO maps the model onto the response payload.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:              product.ID,
		Code:            product.Code,
		SupplierCode:    product.SupplierCode,
		Description:     product.Description,
		Details:         product.Details,
		SupplierID:      product.SupplierID,
		CategoryID:      product.CategoryID,
		ListPrice:       product.ListPrice,
		Discount1:       product.Discount1,
		Discount2:       product.Discount2,
		Discount3:       product.Discount3,
		DiscountDisplay: product.DiscountDisplay,
		ExtraPct:        product.ExtraPct,
		NetPrice:        product.NetPrice,
		SalePrice:       product.SalePrice,
		IVARate:         product.IVARate,
		CurrentStock:    product.CurrentStock,
		MinimumStock:    product.MinimumStock,
		Unit:            product.Unit,
		IsActive:        product.IsActive,
		IsLowStock:      product.IsLowStock(),
		CreatedAt:       product.CreatedAt,
		UpdatedAt:       product.UpdatedAt,
	}
	if product.Supplier != nil {
		dto.SupplierName = &product.Supplier.Name
	}
	if product.Category != nil {
		dto.CategoryName = &product.Category.Name
	}
	return dto
}
