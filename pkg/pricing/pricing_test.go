package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUnitCostCascade(t *testing.T) {
	tests := []struct {
		name       string
		listPrice  string
		d1, d2, d3 string
		want       string
	}{
		{name: "no discounts", listPrice: "1000", d1: "0", d2: "0", d3: "0", want: "1000"},
		{name: "two chained tens", listPrice: "1000", d1: "10", d2: "10", d3: "0", want: "810"},
		{name: "all three", listPrice: "100", d1: "20", d2: "30", d3: "10", want: "50.4"},
		{name: "full discount", listPrice: "500", d1: "100", d2: "0", d3: "0", want: "0"},
		{name: "zero list price", listPrice: "0", d1: "15", d2: "5", d3: "0", want: "0"},
		{name: "rounds half up", listPrice: "33.33", d1: "50", d2: "0", d3: "0", want: "16.67"},
	}
	for _, tt := range tests {
		got := UnitCost(dec(tt.listPrice), dec(tt.d1), dec(tt.d2), dec(tt.d3))
		if !got.Equal(dec(tt.want)) {
			t.Fatalf("%s: expected %s got %s", tt.name, tt.want, got)
		}
	}
}

func TestUnitCostMonotoneInEachDiscount(t *testing.T) {
	list := dec("750")
	base := UnitCost(list, dec("10"), dec("5"), dec("0"))
	for _, bumped := range []decimal.Decimal{
		UnitCost(list, dec("11"), dec("5"), dec("0")),
		UnitCost(list, dec("10"), dec("6"), dec("0")),
		UnitCost(list, dec("10"), dec("5"), dec("1")),
	} {
		if bumped.GreaterThan(base) {
			t.Fatalf("raising a discount increased the cost: %s > %s", bumped, base)
		}
	}
}

func TestUnitCostChainedNotAdditive(t *testing.T) {
	// 10 then 10 must land on 81%, not the additive 80%.
	got := UnitCost(dec("1000"), dec("10"), dec("10"), dec("0"))
	if !got.Equal(dec("810")) {
		t.Fatalf("expected 810.00 got %s", got)
	}
}

func TestSalePrice(t *testing.T) {
	net, sale := SalePrice(dec("1000"), dec("10"), dec("10"), dec("0"), dec("0"), dec("21"))
	if !net.Equal(dec("810")) {
		t.Fatalf("expected net 810 got %s", net)
	}
	if !sale.Equal(dec("980.1")) {
		t.Fatalf("expected sale 980.10 got %s", sale)
	}

	net, sale = SalePrice(dec("100"), dec("0"), dec("0"), dec("0"), dec("10"), dec("21"))
	if !net.Equal(dec("110")) {
		t.Fatalf("expected net 110 with extra surcharge, got %s", net)
	}
	if !sale.Equal(dec("133.1")) {
		t.Fatalf("expected sale 133.10, got %s", sale)
	}
}

func TestDiscountDisplay(t *testing.T) {
	if got := DiscountDisplay(dec("20"), dec("30"), dec("10")); got != "20+30+10" {
		t.Fatalf("unexpected display %q", got)
	}
	if got := DiscountDisplay(dec("15"), dec("0"), dec("0")); got != "15" {
		t.Fatalf("unexpected display %q", got)
	}
	if got := DiscountDisplay(dec("0"), dec("0"), dec("0")); got != "" {
		t.Fatalf("expected empty display, got %q", got)
	}
}
