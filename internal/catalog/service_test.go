package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/restockhq/restock-backend/pkg/config"
	"github.com/restockhq/restock-backend/pkg/db/models"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/pagination"
)

type fakeProductRepo struct {
	products  map[uuid.UUID]*models.Product
	order     []uuid.UUID
	listCalls []pagination.Params
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uuid.UUID]*models.Product{}}
}

func (f *fakeProductRepo) CreateProduct(_ context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.products[product.ID] = product
	f.order = append(f.order, product.ID)
	return product, nil
}

func (f *fakeProductRepo) UpdateProduct(_ context.Context, product *models.Product) (*models.Product, error) {
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, businessID, productID uuid.UUID) (*models.Product, error) {
	product, ok := f.products[productID]
	if !ok || product.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) ListProducts(_ context.Context, businessID uuid.UUID, _ ListFilters, params pagination.Params) ([]models.Product, int64, error) {
	params = params.Normalize()
	f.listCalls = append(f.listCalls, params)

	var scoped []models.Product
	for _, id := range f.order {
		if product := f.products[id]; product.BusinessID == businessID {
			scoped = append(scoped, *product)
		}
	}
	total := int64(len(scoped))
	start := params.Offset()
	if start >= len(scoped) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(scoped) {
		end = len(scoped)
	}
	return scoped[start:end], total, nil
}

func (f *fakeProductRepo) UpdateStock(_ context.Context, businessID, productID uuid.UUID, stock int) error {
	product, ok := f.products[productID]
	if !ok || product.BusinessID != businessID {
		return gorm.ErrRecordNotFound
	}
	product.CurrentStock = stock
	return nil
}

func newTestService(t *testing.T, repo ProductRepository) Service {
	t.Helper()
	svc, err := NewService(repo, config.WorkflowConfig{CatalogPage: 2})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func decimalFrom(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t, newFakeProductRepo())
	businessID := uuid.New()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing code", CreateProductInput{Description: "bolts"}},
		{"missing description", CreateProductInput{Code: "B-100"}},
		{"negative list price", CreateProductInput{Code: "B-100", Description: "bolts", ListPrice: decimalFrom("-1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), businessID, tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateProductDerivesPrices(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo)

	dto, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		Code:        "B-100",
		Description: "hex bolts",
		ListPrice:   decimalFrom("100"),
		Discount1:   decimalFrom("20"),
		Discount2:   decimalFrom("30"),
		Discount3:   decimalFrom("10"),
		ExtraPct:    decimalFrom("10"),
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}

	if !dto.NetPrice.Equal(decimalFrom("55.44")) {
		t.Fatalf("expected net 55.44, got %s", dto.NetPrice)
	}
	if !dto.SalePrice.Equal(decimalFrom("67.08")) {
		t.Fatalf("expected sale 67.08, got %s", dto.SalePrice)
	}
	if dto.DiscountDisplay == nil || *dto.DiscountDisplay != "20+30+10" {
		t.Fatalf("expected discount display 20+30+10, got %v", dto.DiscountDisplay)
	}
	if !dto.IVARate.Equal(decimalFrom("21")) {
		t.Fatalf("expected default iva 21, got %s", dto.IVARate)
	}
}

func TestUpdateProductRepricesOnlyWhenPriceFieldsChange(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo)
	businessID := uuid.New()

	created, err := svc.CreateProduct(context.Background(), businessID, CreateProductInput{
		Code:        "B-100",
		Description: "hex bolts",
		ListPrice:   decimalFrom("1000"),
		Discount1:   decimalFrom("10"),
		Discount2:   decimalFrom("10"),
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}

	description := "hex bolts zinc"
	updated, err := svc.UpdateProduct(context.Background(), businessID, created.ID, UpdateProductInput{Description: &description})
	if err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}
	if !updated.NetPrice.Equal(created.NetPrice) || !updated.SalePrice.Equal(created.SalePrice) {
		t.Fatal("expected prices untouched by a description-only update")
	}

	newDiscount := decimalFrom("50")
	repriced, err := svc.UpdateProduct(context.Background(), businessID, created.ID, UpdateProductInput{Discount1: &newDiscount})
	if err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}
	// 1000 × 0.5 × 0.9 = 450, iva 21 → 544.50
	if !repriced.NetPrice.Equal(decimalFrom("450")) {
		t.Fatalf("expected net 450, got %s", repriced.NetPrice)
	}
	if !repriced.SalePrice.Equal(decimalFrom("544.5")) {
		t.Fatalf("expected sale 544.50, got %s", repriced.SalePrice)
	}
	if repriced.DiscountDisplay == nil || *repriced.DiscountDisplay != "50+10" {
		t.Fatalf("expected discount display 50+10, got %v", repriced.DiscountDisplay)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t, newFakeProductRepo())
	_, err := svc.GetProduct(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDrainProductsFetchesEveryPage(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo)
	businessID := uuid.New()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateProduct(context.Background(), businessID, CreateProductInput{
			Code:        fmt.Sprintf("B-%03d", i),
			Description: "bolts",
			ListPrice:   decimalFrom("10"),
		})
		if err != nil {
			t.Fatalf("CreateProduct returned error: %v", err)
		}
	}
	repo.listCalls = nil

	products, err := svc.DrainProducts(context.Background(), businessID, ListFilters{})
	if err != nil {
		t.Fatalf("DrainProducts returned error: %v", err)
	}
	if len(products) != 5 {
		t.Fatalf("expected all 5 products, got %d", len(products))
	}
	if len(repo.listCalls) != 3 {
		t.Fatalf("expected 3 page fetches for 5 products at page size 2, got %d", len(repo.listCalls))
	}
}

func TestUpdateStock(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo)
	businessID := uuid.New()

	created, err := svc.CreateProduct(context.Background(), businessID, CreateProductInput{
		Code:        "B-100",
		Description: "hex bolts",
		ListPrice:   decimalFrom("10"),
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}

	if err := svc.UpdateStock(context.Background(), businessID, created.ID, 42); err != nil {
		t.Fatalf("UpdateStock returned error: %v", err)
	}
	if got := repo.products[created.ID].CurrentStock; got != 42 {
		t.Fatalf("expected stock 42, got %d", got)
	}

	err = svc.UpdateStock(context.Background(), businessID, uuid.New(), 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateProductZeroIVAFallsBackToStandardRate(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo)
	businessID := uuid.New()

	created, err := svc.CreateProduct(context.Background(), businessID, CreateProductInput{
		Code:        "W-200",
		Description: "flat washers",
		ListPrice:   decimalFrom("100"),
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}

	zero := decimalFrom("0")
	updated, err := svc.UpdateProduct(context.Background(), businessID, created.ID, UpdateProductInput{IVARate: &zero})
	if err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}
	// an unset (zero) rate still sells at the standard 21%
	if !updated.SalePrice.Equal(decimalFrom("121")) {
		t.Fatalf("expected sale price 121.00, got %s", updated.SalePrice)
	}
	if !updated.NetPrice.Equal(decimalFrom("100")) {
		t.Fatalf("expected net price 100.00, got %s", updated.NetPrice)
	}
}
