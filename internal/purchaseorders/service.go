package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/restockhq/restock-backend/pkg/db/models"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/metrics"
	"github.com/restockhq/restock-backend/pkg/pagination"
)

// Service exposes the purchase-order lifecycle: drafts are created, edited
// and deleted freely; confirmation is a one-way door.
type Service interface {
	Create(ctx context.Context, businessID, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	Update(ctx context.Context, businessID, orderID uuid.UUID, input UpdateOrderInput) (*OrderDTO, error)
	Confirm(ctx context.Context, businessID, orderID uuid.UUID) (*OrderDTO, error)
	Delete(ctx context.Context, businessID, orderID uuid.UUID) error
	Get(ctx context.Context, businessID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, businessID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[OrderSummaryDTO], error)
}

// ItemInput is one order line as submitted by the caller.
type ItemInput struct {
	ProductID       uuid.UUID
	SystemStock     int
	CountedStock    *int
	QuantityToOrder int
	UnitCost        decimal.Decimal
	IVARate         *decimal.Decimal
}

// CreateOrderInput holds the payload for a new draft.
type CreateOrderInput struct {
	SupplierID *uuid.UUID
	CategoryID *uuid.UUID
	Notes      *string
	Items      []ItemInput
}

// UpdateOrderInput replaces a draft's content. Items is the complete new
// item set, not a patch.
type UpdateOrderInput struct {
	SupplierID *uuid.UUID
	CategoryID *uuid.UUID
	Notes      *string
	Items      []ItemInput
}

type service struct {
	repo    OrderRepository
	logger  *logger.Logger
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

// NewService constructs a lifecycle service instance.
func NewService(repo OrderRepository, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		logger:  logg,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create persists a new draft with recalculated line and header totals.
func (s *service) Create(ctx context.Context, businessID, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	order := &models.PurchaseOrder{
		BusinessID: businessID,
		SupplierID: input.SupplierID,
		CategoryID: input.CategoryID,
		CreatedBy:  userID,
		Notes:      input.Notes,
		Items:      items,
	}
	order.RecalculateTotals()

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert purchase order")
	}

	s.metrics.IncDraftSaved()
	ctx = s.logger.WithOrderID(ctx, created.ID.String())
	s.logger.Info(ctx, "purchase order draft created")
	return s.reload(ctx, businessID, created.ID)
}

// Update replaces a draft's items and header fields. Confirmed orders are
// frozen and rejected with a state conflict.
func (s *service) Update(ctx context.Context, businessID, orderID uuid.UUID, input UpdateOrderInput) (*OrderDTO, error) {
	order, err := s.loadForWrite(ctx, businessID, orderID)
	if err != nil {
		return nil, err
	}

	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	if input.SupplierID != nil {
		order.SupplierID = input.SupplierID
	}
	if input.CategoryID != nil {
		order.CategoryID = input.CategoryID
	}
	if input.Notes != nil {
		order.Notes = input.Notes
	}
	order.Items = items
	order.RecalculateTotals()

	if err := s.repo.ReplaceItems(ctx, order, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace order items")
	}

	s.metrics.IncDraftSaved()
	return s.reload(ctx, businessID, orderID)
}

// Confirm moves a draft to confirmed. A second confirm, or a confirm of a
// deleted order, fails without touching confirmed_at.
func (s *service) Confirm(ctx context.Context, businessID, orderID uuid.UUID) (*OrderDTO, error) {
	moved, err := s.repo.ConfirmOrder(ctx, businessID, orderID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: confirm purchase order")
	}
	if !moved {
		order, loadErr := s.repo.FindByID(ctx, businessID, orderID)
		if loadErr != nil {
			if errors.Is(loadErr, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, loadErr, "db: load purchase order")
		}
		if !order.IsDraft() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order is already confirmed")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order cannot be confirmed")
	}

	s.metrics.IncConfirmed()
	ctx = s.logger.WithOrderID(ctx, orderID.String())
	s.logger.Info(ctx, "purchase order confirmed")
	return s.reload(ctx, businessID, orderID)
}

// Delete soft-deletes a draft. Confirmed orders cannot be deleted.
func (s *service) Delete(ctx context.Context, businessID, orderID uuid.UUID) error {
	deleted, err := s.repo.SoftDeleteDraft(ctx, businessID, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete purchase order")
	}
	if deleted {
		return nil
	}

	order, loadErr := s.repo.FindByID(ctx, businessID, orderID)
	if loadErr != nil {
		if errors.Is(loadErr, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, loadErr, "db: load purchase order")
	}
	if !order.IsDraft() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "confirmed purchase orders cannot be deleted")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order cannot be deleted")
}

// Get loads one order.
func (s *service) Get(ctx context.Context, businessID, orderID uuid.UUID) (*OrderDTO, error) {
	return s.reload(ctx, businessID, orderID)
}

// List returns one page of order summaries.
func (s *service) List(ctx context.Context, businessID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[OrderSummaryDTO], error) {
	orders, total, err := s.repo.ListOrders(ctx, businessID, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list purchase orders")
	}
	rows := make([]OrderSummaryDTO, 0, len(orders))
	for i := range orders {
		rows = append(rows, NewOrderSummaryDTO(&orders[i]))
	}
	page := pagination.NewPage(rows, total, params)
	return &page, nil
}

func (s *service) loadForWrite(ctx context.Context, businessID, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	order, err := s.repo.FindByID(ctx, businessID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load purchase order")
	}
	if !order.IsDraft() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "confirmed purchase orders cannot be modified")
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, businessID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, businessID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load purchase order")
	}
	return NewOrderDTO(order), nil
}

func buildItems(inputs []ItemInput) ([]models.PurchaseOrderItem, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a purchase order needs at least one item")
	}

	items := make([]models.PurchaseOrderItem, 0, len(inputs))
	for i, input := range inputs {
		if input.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d is missing its product", i))
		}
		if input.QuantityToOrder <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d needs a positive quantity", i))
		}
		if input.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d has a negative unit cost", i))
		}

		ivaRate := decimal.NewFromInt(21)
		if input.IVARate != nil {
			ivaRate = *input.IVARate
		}
		item := models.PurchaseOrderItem{
			ProductID:       input.ProductID,
			SystemStock:     input.SystemStock,
			CountedStock:    input.CountedStock,
			QuantityToOrder: input.QuantityToOrder,
			UnitCost:        input.UnitCost,
			IVARate:         ivaRate,
		}
		item.Recalculate()
		items = append(items, item)
	}
	return items, nil
}
