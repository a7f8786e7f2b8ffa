package purchaseorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/pkg/db/models"
)

// ListFilters describe the supported filter knobs for the order list endpoint.
type ListFilters struct {
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Status     *string    `json:"status,omitempty"`
}

// OrderItemDTO is one order line in a response payload.
type OrderItemDTO struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductCode     *string         `json:"product_code,omitempty"`
	ProductName     *string         `json:"product_name,omitempty"`
	SystemStock     int             `json:"system_stock"`
	CountedStock    *int            `json:"counted_stock,omitempty"`
	QuantityToOrder int             `json:"quantity_to_order"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	IVARate         decimal.Decimal `json:"iva_rate"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	IVAAmount       decimal.Decimal `json:"iva_amount"`
	Total           decimal.Decimal `json:"total"`
}

// OrderDTO represents the full order payload returned to clients.
type OrderDTO struct {
	ID           uuid.UUID       `json:"id"`
	Status       string          `json:"status"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName *string         `json:"supplier_name,omitempty"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"`
	CreatedBy    uuid.UUID       `json:"created_by"`
	CreatorName  *string         `json:"creator_name,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TotalIVA     decimal.Decimal `json:"total_iva"`
	Total        decimal.Decimal `json:"total"`
	Notes        *string         `json:"notes,omitempty"`
	Items        []OrderItemDTO  `json:"items"`
	ConfirmedAt  *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OrderSummaryDTO is the list-row projection.
type OrderSummaryDTO struct {
	ID           uuid.UUID       `json:"id"`
	Status       string          `json:"status"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName *string         `json:"supplier_name,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"`
	CreatorName  *string         `json:"creator_name,omitempty"`
	Total        decimal.Decimal `json:"total"`
	ItemsCount   int             `json:"items_count"`
	ConfirmedAt  *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewOrderDTO maps the model onto the full response payload.
func NewOrderDTO(order *models.PurchaseOrder) *OrderDTO {
	dto := &OrderDTO{
		ID:          order.ID,
		Status:      order.Status.String(),
		SupplierID:  order.SupplierID,
		CategoryID:  order.CategoryID,
		CreatedBy:   order.CreatedBy,
		Subtotal:    order.Subtotal,
		TotalIVA:    order.TotalIVA,
		Total:       order.Total,
		Notes:       order.Notes,
		ConfirmedAt: order.ConfirmedAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	if order.Supplier != nil {
		dto.SupplierName = &order.Supplier.Name
	}
	if order.Category != nil {
		dto.CategoryName = &order.Category.Name
	}
	if order.CreatedByUser != nil {
		name := order.CreatedByUser.DisplayName()
		dto.CreatorName = &name
	}
	dto.Items = make([]OrderItemDTO, 0, len(order.Items))
	for i := range order.Items {
		dto.Items = append(dto.Items, newOrderItemDTO(&order.Items[i]))
	}
	return dto
}

func newOrderItemDTO(item *models.PurchaseOrderItem) OrderItemDTO {
	dto := OrderItemDTO{
		ID:              item.ID,
		ProductID:       item.ProductID,
		SystemStock:     item.SystemStock,
		CountedStock:    item.CountedStock,
		QuantityToOrder: item.QuantityToOrder,
		UnitCost:        item.UnitCost,
		IVARate:         item.IVARate,
		Subtotal:        item.Subtotal,
		IVAAmount:       item.IVAAmount,
		Total:           item.Total,
	}
	if item.Product != nil {
		dto.ProductCode = &item.Product.Code
		dto.ProductName = &item.Product.Description
	}
	return dto
}

// NewOrderSummaryDTO maps the model onto the list-row projection.
func NewOrderSummaryDTO(order *models.PurchaseOrder) OrderSummaryDTO {
	dto := OrderSummaryDTO{
		ID:          order.ID,
		Status:      order.Status.String(),
		SupplierID:  order.SupplierID,
		Total:       order.Total,
		ItemsCount:  len(order.Items),
		ConfirmedAt: order.ConfirmedAt,
		CreatedAt:   order.CreatedAt,
	}
	if order.Supplier != nil {
		dto.SupplierName = &order.Supplier.Name
	}
	if order.Category != nil {
		dto.CategoryName = &order.Category.Name
	}
	if order.CreatedByUser != nil {
		name := order.CreatedByUser.DisplayName()
		dto.CreatorName = &name
	}
	return dto
}
