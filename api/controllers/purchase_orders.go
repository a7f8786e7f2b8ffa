package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/api/responses"
	"github.com/restockhq/restock-backend/api/validators"
	"github.com/restockhq/restock-backend/internal/documents"
	"github.com/restockhq/restock-backend/internal/purchaseorders"
	"github.com/restockhq/restock-backend/pkg/enums"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
)

type orderItemRequest struct {
	ProductID       string           `json:"product_id" validate:"required,uuid"`
	SystemStock     int              `json:"system_stock"`
	CountedStock    *int             `json:"counted_stock,omitempty"`
	QuantityToOrder int              `json:"quantity_to_order" validate:"required,min=1"`
	UnitCost        decimal.Decimal  `json:"unit_cost"`
	IVARate         *decimal.Decimal `json:"iva_rate,omitempty"`
}

type writeOrderRequest struct {
	SupplierID *string            `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	CategoryID *string            `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Notes      *string            `json:"notes,omitempty"`
	Items      []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req writeOrderRequest) toItems() ([]purchaseorders.ItemInput, error) {
	items := make([]purchaseorders.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product_id must be a uuid")
		}
		items = append(items, purchaseorders.ItemInput{
			ProductID:       productID,
			SystemStock:     item.SystemStock,
			CountedStock:    item.CountedStock,
			QuantityToOrder: item.QuantityToOrder,
			UnitCost:        item.UnitCost,
			IVARate:         item.IVARate,
		})
	}
	return items, nil
}

func CreatePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, userID, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload writeOrderRequest
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
		items, err := payload.toItems()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), businessID, userID, purchaseorders.CreateOrderInput{
			SupplierID: supplierID,
			CategoryID: categoryID,
			Notes:      payload.Notes,
			Items:      items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func UpdatePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload writeOrderRequest
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
		items, err := payload.toItems()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Update(r.Context(), businessID, orderID, purchaseorders.UpdateOrderInput{
			SupplierID: supplierID,
			CategoryID: categoryID,
			Notes:      payload.Notes,
			Items:      items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ConfirmPurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Confirm(r.Context(), businessID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func DeletePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), businessID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func GetPurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), businessID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListPurchaseOrders(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *string
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			if _, parseErr := enums.ParsePurchaseOrderStatus(raw); parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			status = &raw
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), businessID, purchaseorders.ListFilters{
			SupplierID: supplierID,
			CategoryID: categoryID,
			Status:     status,
		}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// PurchaseOrderDocument proxies the rendered order document download.
func PurchaseOrderDocument(orders purchaseorders.Service, docs documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// resolve through the lifecycle service first so a foreign order id
		// yields 404 instead of leaking renderer responses
		if _, err := orders.Get(r.Context(), businessID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artifact, err := docs.OrderDocument(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteArtifact(w, artifact.ContentType, artifact.Data)
	}
}
