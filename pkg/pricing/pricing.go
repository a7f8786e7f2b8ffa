// Package pricing implements the chained-discount cost model shared by the
// catalog's sale-price derivation and the purchase-order default unit cost.
package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// UnitCost applies up to three chained percentage discounts to a list price,
// in the fixed order d1 then d2 then d3:
//
//	cost = listPrice × (1 − d1/100) × (1 − d2/100) × (1 − d3/100)
//
// rounded half-up to two decimal places. A discount of zero means "not
// applied". Discounts outside [0,100] are the caller's responsibility.
func UnitCost(listPrice, d1, d2, d3 decimal.Decimal) decimal.Decimal {
	cost := listPrice.
		Mul(one.Sub(d1.Div(hundred))).
		Mul(one.Sub(d2.Div(hundred))).
		Mul(one.Sub(d3.Div(hundred)))
	return cost.Round(2)
}

// SalePrice derives the catalog net and final sale prices from the same
// cascade: net = cascade × (1 + extra%/100), sale = net × (1 + iva/100).
// Both results are rounded half-up to two places.
func SalePrice(listPrice, d1, d2, d3, extraPct, ivaRate decimal.Decimal) (net, sale decimal.Decimal) {
	netBase := listPrice.
		Mul(one.Sub(d1.Div(hundred))).
		Mul(one.Sub(d2.Div(hundred))).
		Mul(one.Sub(d3.Div(hundred)))
	netWithExtra := netBase.Mul(one.Add(extraPct.Div(hundred)))
	saleFull := netWithExtra.Mul(one.Add(ivaRate.Div(hundred)))
	return netWithExtra.Round(2), saleFull.Round(2)
}

// DiscountDisplay renders the applied discounts as a compact label such as
// "20+30+10". Discounts of zero are omitted; all-zero yields "".
func DiscountDisplay(d1, d2, d3 decimal.Decimal) string {
	parts := make([]string, 0, 3)
	for _, d := range []decimal.Decimal{d1, d2, d3} {
		if d.IsPositive() {
			parts = append(parts, strconv.FormatInt(d.IntPart(), 10))
		}
	}
	return strings.Join(parts, "+")
}
