package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing for one business.
type Product struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null"`
	SupplierID *uuid.UUID `gorm:"column:supplier_id;type:uuid"`
	CategoryID *uuid.UUID `gorm:"column:category_id;type:uuid"`

	Code         string  `gorm:"column:code;not null"`
	SupplierCode *string `gorm:"column:supplier_code"`
	Description  string  `gorm:"column:description;not null"`
	Details      *string `gorm:"column:details"`

	ListPrice decimal.Decimal `gorm:"column:list_price;type:numeric(12,2);not null;default:0"`
	Discount1 decimal.Decimal `gorm:"column:discount_1;type:numeric(5,2);not null;default:0"`
	Discount2 decimal.Decimal `gorm:"column:discount_2;type:numeric(5,2);not null;default:0"`
	Discount3 decimal.Decimal `gorm:"column:discount_3;type:numeric(5,2);not null;default:0"`
	// DiscountDisplay caches the "20+30+10" label derived from the cascade.
	DiscountDisplay *string `gorm:"column:discount_display"`

	ExtraPct  decimal.Decimal `gorm:"column:extra_pct;type:numeric(5,2);not null;default:0"`
	NetPrice  decimal.Decimal `gorm:"column:net_price;type:numeric(12,2);not null;default:0"`
	SalePrice decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null;default:0"`
	IVARate   decimal.Decimal `gorm:"column:iva_rate;type:numeric(5,2);not null;default:21"`

	CurrentStock int    `gorm:"column:current_stock;not null;default:0"`
	MinimumStock int    `gorm:"column:minimum_stock;not null;default:0"`
	Unit         string `gorm:"column:unit;not null;default:'unit'"`
	IsActive     bool   `gorm:"column:is_active;not null;default:true"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
	Category *Category `gorm:"foreignKey:CategoryID"`

	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
}

// IsLowStock reports whether the product sits at or below its minimum stock.
func (p Product) IsLowStock() bool {
	return p.MinimumStock > 0 && p.CurrentStock <= p.MinimumStock
}

// TableName implements the gorm naming override.
func (Product) TableName() string { return "products" }
