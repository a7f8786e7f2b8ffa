package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/pkg/enums"
)

// PurchaseOrder records a supplier order produced by a physical stock count.
// It stays editable while in draft and freezes permanently once confirmed.
type PurchaseOrder struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID  `gorm:"column:business_id;type:uuid;not null"`
	SupplierID *uuid.UUID `gorm:"column:supplier_id;type:uuid"`
	CategoryID *uuid.UUID `gorm:"column:category_id;type:uuid"`
	CreatedBy  uuid.UUID  `gorm:"column:created_by;type:uuid;not null"`

	Status enums.PurchaseOrderStatus `gorm:"column:status;not null;default:'draft'"`

	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	TotalIVA decimal.Decimal `gorm:"column:total_iva;type:numeric(14,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null;default:0"`

	Notes       *string    `gorm:"column:notes"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`

	Supplier      *Supplier `gorm:"foreignKey:SupplierID"`
	Category      *Category `gorm:"foreignKey:CategoryID"`
	CreatedByUser *User     `gorm:"foreignKey:CreatedBy"`

	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
}

// RecalculateTotals derives subtotal, total_iva and total from the items.
func (o *PurchaseOrder) RecalculateTotals() {
	subtotal := decimal.Zero
	totalIVA := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Subtotal)
		totalIVA = totalIVA.Add(item.IVAAmount)
	}
	o.Subtotal = subtotal.Round(2)
	o.TotalIVA = totalIVA.Round(2)
	o.Total = subtotal.Add(totalIVA).Round(2)
}

// IsDraft reports whether the order still accepts mutations.
func (o PurchaseOrder) IsDraft() bool {
	return o.Status == enums.PurchaseOrderStatusDraft
}

// TableName implements the gorm naming override.
func (PurchaseOrder) TableName() string { return "purchase_orders" }

// PurchaseOrderItem is one counted product line inside an order. The system
// stock is a snapshot taken when the line was written, not a live reference,
// and the unit cost is operator-editable independently of the catalog.
type PurchaseOrderItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`

	SystemStock     int  `gorm:"column:system_stock;not null;default:0"`
	CountedStock    *int `gorm:"column:counted_stock"`
	QuantityToOrder int  `gorm:"column:quantity_to_order;not null;default:0"`

	UnitCost decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null;default:0"`
	IVARate  decimal.Decimal `gorm:"column:iva_rate;type:numeric(5,2);not null;default:21"`

	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	IVAAmount decimal.Decimal `gorm:"column:iva_amount;type:numeric(14,2);not null;default:0"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null;default:0"`

	Product *Product `gorm:"foreignKey:ProductID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Recalculate derives subtotal, iva_amount and total for this line.
func (i *PurchaseOrderItem) Recalculate() {
	qty := decimal.NewFromInt(int64(i.QuantityToOrder))
	subtotal := i.UnitCost.Mul(qty)
	ivaAmount := subtotal.Mul(i.IVARate).Div(decimal.NewFromInt(100))
	i.Subtotal = subtotal.Round(2)
	i.IVAAmount = ivaAmount.Round(2)
	i.Total = subtotal.Add(ivaAmount).Round(2)
}

// TableName implements the gorm naming override.
func (PurchaseOrderItem) TableName() string { return "purchase_order_items" }
