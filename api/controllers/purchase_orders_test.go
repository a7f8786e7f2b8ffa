package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/internal/purchaseorders"
	"github.com/restockhq/restock-backend/pkg/pagination"
)

func decimalFromString(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parsing decimal %q: %v", raw, err)
	}
	return value
}

type recordingOrders struct {
	purchaseorders.Service

	lastCreate purchaseorders.CreateOrderInput
	created    bool
}

func (r *recordingOrders) Create(_ context.Context, _, _ uuid.UUID, input purchaseorders.CreateOrderInput) (*purchaseorders.OrderDTO, error) {
	r.lastCreate = input
	r.created = true
	return &purchaseorders.OrderDTO{ID: uuid.New(), Status: "draft"}, nil
}

func (r *recordingOrders) List(context.Context, uuid.UUID, purchaseorders.ListFilters, pagination.Params) (*pagination.Page[purchaseorders.OrderSummaryDTO], error) {
	return &pagination.Page[purchaseorders.OrderSummaryDTO]{}, nil
}

func orderRouter(svc purchaseorders.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/purchase-orders", CreatePurchaseOrder(svc, nil))
	r.Get("/purchase-orders", ListPurchaseOrders(svc, nil))
	return r
}

func TestCreatePurchaseOrderMapsItems(t *testing.T) {
	svc := &recordingOrders{}
	router := orderRouter(svc)

	productID := uuid.NewString()
	body := `{"items":[{"product_id":"` + productID + `","system_stock":10,"counted_stock":3,"quantity_to_order":7,"unit_cost":"810"}]}`
	req := authedRequest(http.MethodPost, "/purchase-orders", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.lastCreate.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(svc.lastCreate.Items))
	}
	item := svc.lastCreate.Items[0]
	if item.ProductID.String() != productID {
		t.Fatalf("product id not mapped: %s", item.ProductID)
	}
	if item.CountedStock == nil || *item.CountedStock != 3 {
		t.Fatalf("counted stock not mapped: %+v", item)
	}
	if !item.UnitCost.Equal(decimalFromString(t, "810")) {
		t.Fatalf("unit cost not mapped: %s", item.UnitCost)
	}
}

func TestCreatePurchaseOrderRejectsEmptyItems(t *testing.T) {
	svc := &recordingOrders{}
	router := orderRouter(svc)

	req := authedRequest(http.MethodPost, "/purchase-orders", `{"items":[]}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created {
		t.Fatal("service must not run on an empty item list")
	}
}

func TestCreatePurchaseOrderRejectsZeroQuantity(t *testing.T) {
	svc := &recordingOrders{}
	router := orderRouter(svc)

	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity_to_order":0,"unit_cost":"10"}]}`
	req := authedRequest(http.MethodPost, "/purchase-orders", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListPurchaseOrdersRejectsUnknownStatus(t *testing.T) {
	svc := &recordingOrders{}
	router := orderRouter(svc)

	req := authedRequest(http.MethodGet, "/purchase-orders?status=archived", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
