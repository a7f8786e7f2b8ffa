package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/restockhq/restock-backend/internal/catalog"
	"github.com/restockhq/restock-backend/internal/documents"
	"github.com/restockhq/restock-backend/internal/purchaseorders"
	"github.com/restockhq/restock-backend/internal/reconciliation"
	"github.com/restockhq/restock-backend/pkg/db/models"
	"github.com/restockhq/restock-backend/pkg/enums"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/metrics"
)

// Service drives the three-step count workflow: pick a filter scope, count
// stock against the sheet, review and persist the resulting order.
type Service interface {
	Start(ctx context.Context, businessID, userID uuid.UUID, input StartInput) (*SessionDTO, error)
	UpdateFilters(ctx context.Context, businessID, sessionID uuid.UUID, input StartInput) (*SessionDTO, error)
	LoadCount(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error)
	UpdateRow(ctx context.Context, businessID, sessionID uuid.UUID, index int, update RowUpdate) (*SessionDTO, error)
	Advance(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error)
	Back(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error)
	SaveDraft(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error)
	ConfirmNow(ctx context.Context, businessID, sessionID uuid.UUID) (*purchaseorders.OrderDTO, error)
	ResumeDraft(ctx context.Context, businessID, userID, orderID uuid.UUID) (*SessionDTO, error)
	Get(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error)
	CountSheet(ctx context.Context, businessID, sessionID uuid.UUID) (*documents.Artifact, error)
}

type service struct {
	store     *Store
	catalog   catalog.Service
	orders    purchaseorders.Service
	documents documents.Service
	logger    *logger.Logger
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

// NewService constructs the orchestrator.
func NewService(store *Store, catalogSvc catalog.Service, orderSvc purchaseorders.Service, documentSvc documents.Service, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if documentSvc == nil {
		return nil, fmt.Errorf("document service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:     store,
		catalog:   catalogSvc,
		orders:    orderSvc,
		documents: documentSvc,
		logger:    logg,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start opens a session on the filters step.
func (s *service) Start(ctx context.Context, businessID, userID uuid.UUID, input StartInput) (*SessionDTO, error) {
	if input.SupplierID == nil && input.CategoryID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a supplier or category filter is required")
	}

	now := s.now()
	session := &Session{
		ID:         uuid.New(),
		BusinessID: businessID,
		UserID:     userID,
		Step:       enums.CountSessionStepFilters,
		Filters: catalog.ListFilters{
			SupplierID: input.SupplierID,
			CategoryID: input.CategoryID,
		},
		Notes:     input.Notes,
		Sheet:     reconciliation.NewSheet(nil),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.Put(session)
	s.metrics.IncSessionStarted()

	ctx = s.logger.WithSessionID(ctx, session.ID.String())
	s.logger.Info(ctx, "count session started")
	return newSessionDTO(session), nil
}

// UpdateFilters changes the scope of a session sitting on the filters step.
// Changing scope resets the sheet and invalidates any in-flight count load.
func (s *service) UpdateFilters(ctx context.Context, businessID, sessionID uuid.UUID, input StartInput) (*SessionDTO, error) {
	if input.SupplierID == nil && input.CategoryID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a supplier or category filter is required")
	}

	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}

	session.lock()
	defer session.unlock()
	if session.Step != enums.CountSessionStepFilters {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "filters can only change on the filters step")
	}

	session.Filters = catalog.ListFilters{
		SupplierID: input.SupplierID,
		CategoryID: input.CategoryID,
	}
	if input.Notes != nil {
		session.Notes = input.Notes
	}
	session.Sheet = reconciliation.NewSheet(nil)
	session.fingerprint = scopeFingerprint(session.Filters)
	return newSessionDTO(session), nil
}

// LoadCount drains the catalog for the session scope and enters the count
// step. A fetch that comes back after the session's scope changed is
// discarded. Re-entering an already populated session keeps its rows.
func (s *service) LoadCount(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}

	session.lock()
	filters := session.Filters
	fingerprint := scopeFingerprint(filters)
	session.fingerprint = fingerprint
	session.unlock()

	// the drain happens outside the session lock; edits to another
	// session and scope changes on this one proceed meanwhile
	products, err := s.catalog.DrainProducts(ctx, businessID, filters)
	if err != nil {
		return nil, err
	}

	session.lock()
	defer session.unlock()
	if session.fingerprint != fingerprint {
		// scope moved on while we were fetching; the result is stale
		return newSessionDTO(session), nil
	}
	session.Sheet.Initialize(products)
	session.Step = enums.CountSessionStepCount
	return newSessionDTO(session), nil
}

// UpdateRow applies the edits to one row in issue order: counted stock,
// quantity, cost, selection.
func (s *service) UpdateRow(ctx context.Context, businessID, sessionID uuid.UUID, index int, update RowUpdate) (*SessionDTO, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}

	session.lock()
	defer session.unlock()
	if session.Step != enums.CountSessionStepCount && session.Step != enums.CountSessionStepReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no count sheet to edit yet")
	}

	if update.CountedStockSet {
		if err := session.Sheet.SetCountedStock(index, update.CountedStock); err != nil {
			return nil, err
		}
	}
	if update.Quantity != nil {
		if err := session.Sheet.SetQuantity(index, *update.Quantity); err != nil {
			return nil, err
		}
	}
	if update.UnitCost != nil {
		if err := session.Sheet.SetUnitCost(index, *update.UnitCost); err != nil {
			return nil, err
		}
	}
	if update.Selected != nil {
		if err := session.Sheet.SetSelected(index, *update.Selected); err != nil {
			return nil, err
		}
	}
	return newSessionDTO(session), nil
}

// Advance moves count → review. Review needs something to review: at least
// one selected row.
func (s *service) Advance(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}

	session.lock()
	defer session.unlock()
	if session.Step != enums.CountSessionStepCount {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot advance from the %s step", session.Step))
	}
	if len(session.Sheet.SelectedRows()) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select at least one row before reviewing")
	}
	session.Step = enums.CountSessionStepReview
	return newSessionDTO(session), nil
}

// Back steps review → count or count → filters. Rows are kept either way.
func (s *service) Back(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}

	session.lock()
	defer session.unlock()
	switch session.Step {
	case enums.CountSessionStepReview:
		session.Step = enums.CountSessionStepCount
	case enums.CountSessionStepCount:
		session.Step = enums.CountSessionStepFilters
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "already on the first step")
	}
	return newSessionDTO(session), nil
}

// SaveDraft projects the selected rows into an order draft: a create on
// first save, a full-replacement update after that.
func (s *service) SaveDraft(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}

	session.lock()
	defer session.unlock()
	if _, err := s.writeDraftLocked(ctx, session); err != nil {
		return nil, err
	}
	return newSessionDTO(session), nil
}

// ConfirmNow saves the draft and immediately confirms it. When the write
// succeeds but the confirm fails, the session keeps the order id so the
// confirm alone can be retried.
func (s *service) ConfirmNow(ctx context.Context, businessID, sessionID uuid.UUID) (*purchaseorders.OrderDTO, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}

	session.lock()
	defer session.unlock()
	order, err := s.writeDraftLocked(ctx, session)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.orders.Confirm(ctx, session.BusinessID, order.ID)
	if err != nil {
		// the draft is saved and the session remembers it; only the
		// confirm needs retrying
		return nil, err
	}

	s.store.Delete(session.ID)
	return confirmed, nil
}

// ResumeDraft opens a review-step session for an existing draft order.
func (s *service) ResumeDraft(ctx context.Context, businessID, userID, orderID uuid.UUID) (*SessionDTO, error) {
	order, err := s.orders.Get(ctx, businessID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.PurchaseOrderStatusDraft.String() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be resumed")
	}

	items := make([]models.PurchaseOrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		row := models.PurchaseOrderItem{
			ProductID:       item.ProductID,
			SystemStock:     item.SystemStock,
			CountedStock:    item.CountedStock,
			QuantityToOrder: item.QuantityToOrder,
			UnitCost:        item.UnitCost,
			IVARate:         item.IVARate,
		}
		if item.ProductCode != nil || item.ProductName != nil {
			product := &models.Product{}
			if item.ProductCode != nil {
				product.Code = *item.ProductCode
			}
			if item.ProductName != nil {
				product.Description = *item.ProductName
			}
			row.Product = product
		}
		items = append(items, row)
	}

	now := s.now()
	resumedID := order.ID
	session := &Session{
		ID:         uuid.New(),
		BusinessID: businessID,
		UserID:     userID,
		Step:       enums.CountSessionStepReview,
		Filters: catalog.ListFilters{
			SupplierID: order.SupplierID,
			CategoryID: order.CategoryID,
		},
		Notes:     order.Notes,
		Sheet:     reconciliation.NewSheetFromItems(items),
		OrderID:   &resumedID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.Put(session)

	ctx = s.logger.WithSessionID(ctx, session.ID.String())
	s.logger.Info(ctx, "draft order resumed into count session")
	return newSessionDTO(session), nil
}

// Get returns the current session state.
func (s *service) Get(ctx context.Context, businessID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}
	session.lock()
	defer session.unlock()
	return newSessionDTO(session), nil
}

// CountSheet fetches a printable sheet for the session scope. It reads the
// scope and nothing else; a renderer failure never touches session state.
func (s *service) CountSheet(ctx context.Context, businessID, sessionID uuid.UUID) (*documents.Artifact, error) {
	session, err := s.session(businessID, sessionID)
	if err != nil {
		return nil, err
	}
	session.lock()
	filters := session.Filters
	session.unlock()
	return s.documents.CountSheet(ctx, filters)
}

func (s *service) session(businessID, sessionID uuid.UUID) (*Session, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "count session not found or expired")
	}
	if session.BusinessID != businessID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "count session not found or expired")
	}
	return session, nil
}

// writeDraftLocked projects the sheet into order items and writes the draft.
// Caller holds the session lock.
func (s *service) writeDraftLocked(ctx context.Context, session *Session) (*purchaseorders.OrderDTO, error) {
	if session.Step != enums.CountSessionStepReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "the order is written from the review step")
	}

	rows := session.Sheet.SelectedRows()
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no rows selected to order")
	}

	items := make([]purchaseorders.ItemInput, 0, len(rows))
	for _, row := range rows {
		ivaRate := row.IVARate
		items = append(items, purchaseorders.ItemInput{
			ProductID:       row.ProductID,
			SystemStock:     row.SystemStock,
			CountedStock:    row.CountedStock,
			QuantityToOrder: row.QuantityToOrder,
			UnitCost:        row.UnitCost,
			IVARate:         &ivaRate,
		})
	}

	var order *purchaseorders.OrderDTO
	var err error
	if session.OrderID == nil {
		order, err = s.orders.Create(ctx, session.BusinessID, session.UserID, purchaseorders.CreateOrderInput{
			SupplierID: session.Filters.SupplierID,
			CategoryID: session.Filters.CategoryID,
			Notes:      session.Notes,
			Items:      items,
		})
	} else {
		order, err = s.orders.Update(ctx, session.BusinessID, *session.OrderID, purchaseorders.UpdateOrderInput{
			SupplierID: session.Filters.SupplierID,
			CategoryID: session.Filters.CategoryID,
			Notes:      session.Notes,
			Items:      items,
		})
	}
	if err != nil {
		return nil, err
	}

	orderID := order.ID
	session.OrderID = &orderID
	return order, nil
}
