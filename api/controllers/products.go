package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/api/responses"
	"github.com/restockhq/restock-backend/api/validators"
	"github.com/restockhq/restock-backend/internal/catalog"
	"github.com/restockhq/restock-backend/internal/documents"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/pagination"
)

func catalogFilters(r *http.Request) (catalog.ListFilters, error) {
	supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
	if err != nil {
		return catalog.ListFilters{}, err
	}
	categoryID, err := validators.ParseQueryUUID(r, "category_id")
	if err != nil {
		return catalog.ListFilters{}, err
	}
	isActive, err := validators.ParseQueryBool(r, "is_active")
	if err != nil {
		return catalog.ListFilters{}, err
	}
	return catalog.ListFilters{
		SupplierID: supplierID,
		CategoryID: categoryID,
		IsActive:   isActive,
		Search:     strings.TrimSpace(r.URL.Query().Get("q")),
	}, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		return pagination.Params{}, err
	}
	pageSize, err := validators.ParseQueryInt(r, "page_size", 0, 1, 500)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, PageSize: pageSize}, nil
}

// ListProducts serves the filtered, paginated catalog view.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := catalogFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), businessID, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.URLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), businessID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Code         string           `json:"code" validate:"required"`
	SupplierCode *string          `json:"supplier_code,omitempty"`
	Description  string           `json:"description" validate:"required"`
	Details      *string          `json:"details,omitempty"`
	SupplierID   *string          `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	CategoryID   *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
	ListPrice    decimal.Decimal  `json:"list_price"`
	Discount1    decimal.Decimal  `json:"discount_1"`
	Discount2    decimal.Decimal  `json:"discount_2"`
	Discount3    decimal.Decimal  `json:"discount_3"`
	ExtraPct     decimal.Decimal  `json:"extra_pct"`
	IVARate      *decimal.Decimal `json:"iva_rate,omitempty"`
	CurrentStock int              `json:"current_stock" validate:"omitempty,gte=0"`
	MinimumStock int              `json:"minimum_stock" validate:"omitempty,gte=0"`
	Unit         string           `json:"unit,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

func (req createProductRequest) toInput() (catalog.CreateProductInput, error) {
	supplierID, err := parseOptionalUUID(req.SupplierID, "supplier_id")
	if err != nil {
		return catalog.CreateProductInput{}, err
	}
	categoryID, err := parseOptionalUUID(req.CategoryID, "category_id")
	if err != nil {
		return catalog.CreateProductInput{}, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return catalog.CreateProductInput{
		Code:         strings.TrimSpace(req.Code),
		SupplierCode: req.SupplierCode,
		Description:  strings.TrimSpace(req.Description),
		Details:      req.Details,
		SupplierID:   supplierID,
		CategoryID:   categoryID,
		ListPrice:    req.ListPrice,
		Discount1:    req.Discount1,
		Discount2:    req.Discount2,
		Discount3:    req.Discount3,
		ExtraPct:     req.ExtraPct,
		IVARate:      req.IVARate,
		CurrentStock: req.CurrentStock,
		MinimumStock: req.MinimumStock,
		Unit:         strings.TrimSpace(req.Unit),
		IsActive:     active,
	}, nil
}

func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), businessID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Code         *string          `json:"code,omitempty"`
	SupplierCode *string          `json:"supplier_code,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Details      *string          `json:"details,omitempty"`
	SupplierID   *string          `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	CategoryID   *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
	ListPrice    *decimal.Decimal `json:"list_price,omitempty"`
	Discount1    *decimal.Decimal `json:"discount_1,omitempty"`
	Discount2    *decimal.Decimal `json:"discount_2,omitempty"`
	Discount3    *decimal.Decimal `json:"discount_3,omitempty"`
	ExtraPct     *decimal.Decimal `json:"extra_pct,omitempty"`
	IVARate      *decimal.Decimal `json:"iva_rate,omitempty"`
	MinimumStock *int             `json:"minimum_stock,omitempty" validate:"omitempty,gte=0"`
	Unit         *string          `json:"unit,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

func UpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.URLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := parseOptionalUUID(payload.SupplierID, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := parseOptionalUUID(payload.CategoryID, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), businessID, productID, catalog.UpdateProductInput{
			Code:         payload.Code,
			SupplierCode: payload.SupplierCode,
			Description:  payload.Description,
			Details:      payload.Details,
			SupplierID:   supplierID,
			CategoryID:   categoryID,
			ListPrice:    payload.ListPrice,
			Discount1:    payload.Discount1,
			Discount2:    payload.Discount2,
			Discount3:    payload.Discount3,
			ExtraPct:     payload.ExtraPct,
			IVARate:      payload.IVARate,
			MinimumStock: payload.MinimumStock,
			Unit:         payload.Unit,
			IsActive:     payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type updateStockRequest struct {
	CurrentStock int `json:"current_stock"`
}

func UpdateProductStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.URLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateStock(r.Context(), businessID, productID, payload.CurrentStock); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ProductCountSheet downloads the printable count sheet for a filter scope
// from the document renderer.
func ProductCountSheet(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := requestScope(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := catalogFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.SupplierID == nil && filters.CategoryID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "a supplier or category filter is required"))
			return
		}

		artifact, err := svc.CountSheet(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteArtifact(w, artifact.ContentType, artifact.Data)
	}
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "must be a uuid").WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}
