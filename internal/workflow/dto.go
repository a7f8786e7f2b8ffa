package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/internal/catalog"
	"github.com/restockhq/restock-backend/internal/reconciliation"
)

// StartInput opens a new count session. At least one of supplier or
// category is required to bound the scope.
type StartInput struct {
	SupplierID *uuid.UUID
	CategoryID *uuid.UUID
	Notes      *string
}

// RowUpdate carries the edits for one sheet row. Fields apply in a fixed
// order: counted stock first (it derives quantity and selection), then the
// manual quantity, cost, and selection overrides.
type RowUpdate struct {
	// CountedStockSet distinguishes "clear the count" (set, nil value)
	// from "leave it alone" (unset).
	CountedStockSet bool
	CountedStock    *int

	Quantity *int
	UnitCost *decimal.Decimal
	Selected *bool
}

// SessionDTO is the orchestrator's view of a session returned to clients.
type SessionDTO struct {
	ID            uuid.UUID                 `json:"id"`
	Step          string                    `json:"step"`
	Filters       catalog.ListFilters       `json:"filters"`
	Notes         *string                   `json:"notes,omitempty"`
	Rows          []reconciliation.CountRow `json:"rows"`
	SelectedCount int                       `json:"selected_count"`
	Totals        reconciliation.Totals     `json:"totals"`
	OrderID       *uuid.UUID                `json:"order_id,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func newSessionDTO(session *Session) *SessionDTO {
	dto := &SessionDTO{
		ID:        session.ID,
		Step:      session.Step.String(),
		Filters:   session.Filters,
		Notes:     session.Notes,
		OrderID:   session.OrderID,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
	if session.Sheet != nil {
		dto.Rows = session.Sheet.Rows()
		dto.SelectedCount = len(session.Sheet.SelectedRows())
		dto.Totals = session.Sheet.Totals()
	}
	return dto
}
