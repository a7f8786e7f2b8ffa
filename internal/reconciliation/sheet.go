// Package reconciliation holds the working sheet of a stock count: one row
// per catalog product in scope, with counted-stock edits kept consistent
// with the derived order quantity and selection flag.
package reconciliation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/pkg/db/models"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/pricing"
)

// CountRow is one product line in a count sheet. Fields are owned copies
// taken when the sheet was built, not live references into the catalog.
type CountRow struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Code            string          `json:"code"`
	Description     string          `json:"description"`
	SystemStock     int             `json:"system_stock"`
	CountedStock    *int            `json:"counted_stock,omitempty"`
	QuantityToOrder int             `json:"quantity_to_order"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	IVARate         decimal.Decimal `json:"iva_rate"`
	Selected        bool            `json:"selected"`
}

// Totals aggregates the money columns of a set of rows.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	IVATotal decimal.Decimal `json:"iva_total"`
	Total    decimal.Decimal `json:"total"`
}

// Sheet is the index-keyed row arena for one filter scope.
type Sheet struct {
	rows []CountRow
}

// NewSheet builds a sheet seeded from the catalog snapshot.
func NewSheet(products []models.Product) *Sheet {
	s := &Sheet{}
	s.Initialize(products)
	return s
}

// NewSheetFromItems rebuilds a sheet from a draft order's items so an
// operator can resume editing where they left off.
func NewSheetFromItems(items []models.PurchaseOrderItem) *Sheet {
	rows := make([]CountRow, 0, len(items))
	for _, item := range items {
		row := CountRow{
			ProductID:       item.ProductID,
			SystemStock:     item.SystemStock,
			CountedStock:    item.CountedStock,
			QuantityToOrder: item.QuantityToOrder,
			UnitCost:        item.UnitCost,
			IVARate:         item.IVARate,
			Selected:        item.QuantityToOrder > 0,
		}
		if item.Product != nil {
			row.Code = item.Product.Code
			row.Description = item.Product.Description
		}
		rows = append(rows, row)
	}
	return &Sheet{rows: rows}
}

// Initialize populates the rows from the product snapshot. It is a no-op
// when rows already exist so navigating back to the count step never wipes
// the operator's work.
func (s *Sheet) Initialize(products []models.Product) {
	if len(s.rows) > 0 {
		return
	}
	rows := make([]CountRow, 0, len(products))
	for i := range products {
		product := &products[i]
		ivaRate := product.IVARate
		if ivaRate.IsZero() {
			ivaRate = decimal.NewFromInt(21)
		}
		rows = append(rows, CountRow{
			ProductID:   product.ID,
			Code:        product.Code,
			Description: product.Description,
			SystemStock: product.CurrentStock,
			UnitCost:    pricing.UnitCost(product.ListPrice, product.Discount1, product.Discount2, product.Discount3),
			IVARate:     ivaRate,
		})
	}
	s.rows = rows
}

// Len reports the number of rows.
func (s *Sheet) Len() int {
	return len(s.rows)
}

// Rows returns a copy of every row in sheet order.
func (s *Sheet) Rows() []CountRow {
	out := make([]CountRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Row returns a copy of the row at index.
func (s *Sheet) Row(index int) (CountRow, error) {
	if err := s.checkIndex(index); err != nil {
		return CountRow{}, err
	}
	return s.rows[index], nil
}

// SetCountedStock records a physical count and derives the order fields:
// a shortage (counted below system stock) selects the row with the shortage
// as quantity, anything at or above stock deselects it with quantity zero.
// A nil value clears the count and the derivation. The derivation fires only
// here, never from quantity or cost edits. Negative counts are accepted; the
// model imposes no lower bound.
func (s *Sheet) SetCountedStock(index int, value *int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	row := &s.rows[index]
	row.CountedStock = value
	if value == nil {
		row.QuantityToOrder = 0
		row.Selected = false
		return nil
	}
	diff := row.SystemStock - *value
	if diff > 0 {
		row.QuantityToOrder = diff
		row.Selected = true
	} else {
		row.QuantityToOrder = 0
		row.Selected = false
	}
	return nil
}

// SetQuantity overrides the order quantity. A positive quantity forces the
// row selected: manually typing a quantity is an intent to order.
func (s *Sheet) SetQuantity(index int, value int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity to order cannot be negative")
	}
	row := &s.rows[index]
	row.QuantityToOrder = value
	if value > 0 {
		row.Selected = true
	}
	return nil
}

// SetUnitCost overrides the unit cost for the row, nothing else.
func (s *Sheet) SetUnitCost(index int, value decimal.Decimal) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}
	s.rows[index].UnitCost = value
	return nil
}

// SetSelected toggles the selection flag for the row, nothing else.
func (s *Sheet) SetSelected(index int, value bool) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.rows[index].Selected = value
	return nil
}

// SelectedRows returns the rows that will be submitted downstream: selected
// with a positive quantity. Unselected or zero-quantity rows are silently
// excluded.
func (s *Sheet) SelectedRows() []CountRow {
	var out []CountRow
	for _, row := range s.rows {
		if row.Selected && row.QuantityToOrder > 0 {
			out = append(out, row)
		}
	}
	return out
}

// Totals sums the selected rows. Calling it repeatedly never changes the
// sheet.
func (s *Sheet) Totals() Totals {
	return TotalsOf(s.SelectedRows())
}

// TotalsOf sums an arbitrary row set.
func TotalsOf(rows []CountRow) Totals {
	hundred := decimal.NewFromInt(100)
	subtotal := decimal.Zero
	ivaTotal := decimal.Zero
	for _, row := range rows {
		ivaRate := row.IVARate
		if ivaRate.IsZero() {
			ivaRate = decimal.NewFromInt(21)
		}
		line := row.UnitCost.Mul(decimal.NewFromInt(int64(row.QuantityToOrder)))
		subtotal = subtotal.Add(line)
		ivaTotal = ivaTotal.Add(line.Mul(ivaRate).Div(hundred))
	}
	subtotal = subtotal.Round(2)
	ivaTotal = ivaTotal.Round(2)
	return Totals{
		Subtotal: subtotal,
		IVATotal: ivaTotal,
		Total:    subtotal.Add(ivaTotal),
	}
}

func (s *Sheet) checkIndex(index int) error {
	if index < 0 || index >= len(s.rows) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("row index %d out of range", index))
	}
	return nil
}
