package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/api/responses"
	"github.com/restockhq/restock-backend/api/validators"
	"github.com/restockhq/restock-backend/internal/workflow"
	"github.com/restockhq/restock-backend/pkg/logger"
)

type startSessionRequest struct {
	SupplierID *string `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	CategoryID *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Notes      *string `json:"notes,omitempty"`
}

func (req startSessionRequest) toInput() (workflow.StartInput, error) {
	supplierID, err := parseOptionalUUID(req.SupplierID, "supplier_id")
	if err != nil {
		return workflow.StartInput{}, err
	}
	categoryID, err := parseOptionalUUID(req.CategoryID, "category_id")
	if err != nil {
		return workflow.StartInput{}, err
	}
	return workflow.StartInput{
		SupplierID: supplierID,
		CategoryID: categoryID,
		Notes:      req.Notes,
	}, nil
}

func StartCountSession(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, userID, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload startSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Start(r.Context(), businessID, userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func GetCountSession(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), businessID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func UpdateCountSessionFilters(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload startSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.UpdateFilters(r.Context(), businessID, sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func LoadCountSession(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.LoadCount(r.Context(), businessID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type rowUpdateRequest struct {
	CountedStock    *int             `json:"counted_stock,omitempty"`
	ClearCount      bool             `json:"clear_count,omitempty"`
	QuantityToOrder *int             `json:"quantity_to_order,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Selected        *bool            `json:"selected,omitempty"`
}

func UpdateCountSessionRow(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := validators.URLParamInt(r, "index", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rowUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update := workflow.RowUpdate{
			Quantity: payload.QuantityToOrder,
			UnitCost: payload.UnitCost,
			Selected: payload.Selected,
		}
		if payload.CountedStock != nil || payload.ClearCount {
			update.CountedStockSet = true
			update.CountedStock = payload.CountedStock
		}

		session, err := svc.UpdateRow(r.Context(), businessID, sessionID, index, update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func sessionTransition(call func(svc workflow.Service, businessID, sessionID uuid.UUID, r *http.Request) (any, error), svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := call(svc, businessID, sessionID, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdvanceCountSession(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(func(svc workflow.Service, businessID, sessionID uuid.UUID, r *http.Request) (any, error) {
		return svc.Advance(r.Context(), businessID, sessionID)
	}, svc, logg)
}

func BackCountSession(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(func(svc workflow.Service, businessID, sessionID uuid.UUID, r *http.Request) (any, error) {
		return svc.Back(r.Context(), businessID, sessionID)
	}, svc, logg)
}

func SaveCountSessionDraft(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(func(svc workflow.Service, businessID, sessionID uuid.UUID, r *http.Request) (any, error) {
		return svc.SaveDraft(r.Context(), businessID, sessionID)
	}, svc, logg)
}

func ConfirmCountSession(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(func(svc workflow.Service, businessID, sessionID uuid.UUID, r *http.Request) (any, error) {
		return svc.ConfirmNow(r.Context(), businessID, sessionID)
	}, svc, logg)
}

// CountSessionSheet downloads the printable count sheet for the session's
// current scope.
func CountSessionSheet(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, _, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artifact, err := svc.CountSheet(r.Context(), businessID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteArtifact(w, artifact.ContentType, artifact.Data)
	}
}

func ResumeCountSession(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, userID, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.ResumeDraft(r.Context(), businessID, userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}
