package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/restockhq/restock-backend/pkg/config"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/pagination"
	"github.com/restockhq/restock-backend/pkg/pricing"

	"github.com/restockhq/restock-backend/pkg/db/models"
)

// Service exposes catalog management operations.
type Service interface {
	ListProducts(ctx context.Context, businessID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[ProductDTO], error)
	GetProduct(ctx context.Context, businessID, productID uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, businessID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, businessID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	UpdateStock(ctx context.Context, businessID, productID uuid.UUID, stock int) error
	DrainProducts(ctx context.Context, businessID uuid.UUID, filters ListFilters) ([]models.Product, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Code         string
	SupplierCode *string
	Description  string
	Details      *string
	SupplierID   *uuid.UUID
	CategoryID   *uuid.UUID
	ListPrice    decimal.Decimal
	Discount1    decimal.Decimal
	Discount2    decimal.Decimal
	Discount3    decimal.Decimal
	ExtraPct     decimal.Decimal
	IVARate      *decimal.Decimal
	CurrentStock int
	MinimumStock int
	Unit         string
	IsActive     bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Code         *string
	SupplierCode *string
	Description  *string
	Details      *string
	SupplierID   *uuid.UUID
	CategoryID   *uuid.UUID
	ListPrice    *decimal.Decimal
	Discount1    *decimal.Decimal
	Discount2    *decimal.Decimal
	Discount3    *decimal.Decimal
	ExtraPct     *decimal.Decimal
	IVARate      *decimal.Decimal
	MinimumStock *int
	Unit         *string
	IsActive     *bool
}

type service struct {
	repo     ProductRepository
	workflow config.WorkflowConfig
}

// NewService constructs a catalog service instance.
func NewService(repo ProductRepository, workflow config.WorkflowConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, workflow: workflow}, nil
}

// ListProducts returns one page of the catalog.
func (s *service) ListProducts(ctx context.Context, businessID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[ProductDTO], error) {
	products, total, err := s.repo.ListProducts(ctx, businessID, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	items := make([]ProductDTO, 0, len(products))
	for i := range products {
		items = append(items, *NewProductDTO(&products[i]))
	}
	page := pagination.NewPage(items, total, params)
	return &page, nil
}

// GetProduct loads one product.
func (s *service) GetProduct(ctx context.Context, businessID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, businessID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return NewProductDTO(product), nil
}

// CreateProduct validates the payload, derives prices, and inserts the product.
func (s *service) CreateProduct(ctx context.Context, businessID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	code := strings.TrimSpace(input.Code)
	description := strings.TrimSpace(input.Description)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product code is required")
	}
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product description is required")
	}
	if input.ListPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list price cannot be negative")
	}

	ivaRate := decimal.NewFromInt(21)
	if input.IVARate != nil {
		ivaRate = *input.IVARate
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "unit"
	}

	product := &models.Product{
		BusinessID:   businessID,
		SupplierID:   input.SupplierID,
		CategoryID:   input.CategoryID,
		Code:         code,
		SupplierCode: input.SupplierCode,
		Description:  description,
		Details:      input.Details,
		ListPrice:    input.ListPrice,
		Discount1:    input.Discount1,
		Discount2:    input.Discount2,
		Discount3:    input.Discount3,
		ExtraPct:     input.ExtraPct,
		IVARate:      ivaRate,
		CurrentStock: input.CurrentStock,
		MinimumStock: input.MinimumStock,
		Unit:         unit,
		IsActive:     input.IsActive,
	}
	applyDerivedPrices(product)

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

// UpdateProduct applies the mutation and recomputes derived prices when any
// pricing input changed.
func (s *service) UpdateProduct(ctx context.Context, businessID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, businessID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	if err := applyUpdateToProduct(product, input); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(updated), nil
}

// UpdateStock overwrites the live stock figure for one product.
func (s *service) UpdateStock(ctx context.Context, businessID, productID uuid.UUID, stock int) error {
	if err := s.repo.UpdateStock(ctx, businessID, productID, stock); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update stock")
	}
	return nil
}

// DrainProducts pages through the whole filtered catalog. Count sessions need
// every product in scope, not just the first page.
func (s *service) DrainProducts(ctx context.Context, businessID uuid.UUID, filters ListFilters) ([]models.Product, error) {
	pageSize := s.workflow.CatalogPage
	if pageSize <= 0 {
		pageSize = 200
	}

	var all []models.Product
	for page := 1; ; page++ {
		params := pagination.Params{Page: page, PageSize: pageSize}
		products, total, err := s.repo.ListProducts(ctx, businessID, filters, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: drain products")
		}
		all = append(all, products...)
		if page >= pagination.PageCount(total, pageSize) || len(products) == 0 {
			break
		}
	}
	return all, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	if input.Code != nil {
		code := strings.TrimSpace(*input.Code)
		if code == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product code cannot be empty")
		}
		product.Code = code
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product description cannot be empty")
		}
		product.Description = description
	}
	if input.SupplierCode != nil {
		product.SupplierCode = input.SupplierCode
	}
	if input.Details != nil {
		product.Details = input.Details
	}
	if input.SupplierID != nil {
		product.SupplierID = input.SupplierID
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.MinimumStock != nil {
		product.MinimumStock = *input.MinimumStock
	}
	if input.Unit != nil {
		product.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	repriced := false
	if input.ListPrice != nil {
		if input.ListPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "list price cannot be negative")
		}
		product.ListPrice = *input.ListPrice
		repriced = true
	}
	if input.Discount1 != nil {
		product.Discount1 = *input.Discount1
		repriced = true
	}
	if input.Discount2 != nil {
		product.Discount2 = *input.Discount2
		repriced = true
	}
	if input.Discount3 != nil {
		product.Discount3 = *input.Discount3
		repriced = true
	}
	if input.ExtraPct != nil {
		product.ExtraPct = *input.ExtraPct
		repriced = true
	}
	if input.IVARate != nil {
		product.IVARate = *input.IVARate
		repriced = true
	}
	if repriced {
		applyDerivedPrices(product)
	}
	return nil
}

func applyDerivedPrices(product *models.Product) {
	// a zero stored rate means "unset" and sells at the standard 21%, the
	// same fallback the count sheet applies
	ivaRate := product.IVARate
	if ivaRate.IsZero() {
		ivaRate = decimal.NewFromInt(21)
	}
	net, sale := pricing.SalePrice(product.ListPrice, product.Discount1, product.Discount2, product.Discount3, product.ExtraPct, ivaRate)
	product.NetPrice = net
	product.SalePrice = sale
	if display := pricing.DiscountDisplay(product.Discount1, product.Discount2, product.Discount3); display != "" {
		product.DiscountDisplay = &display
	} else {
		product.DiscountDisplay = nil
	}
}
