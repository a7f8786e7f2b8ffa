package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/restockhq/restock-backend/api/middleware"
	"github.com/restockhq/restock-backend/internal/documents"
	"github.com/restockhq/restock-backend/internal/purchaseorders"
	"github.com/restockhq/restock-backend/internal/workflow"
)

type recordingWorkflow struct {
	workflow.Service

	lastIndex  int
	lastUpdate workflow.RowUpdate
}

func (r *recordingWorkflow) UpdateRow(_ context.Context, _, _ uuid.UUID, index int, update workflow.RowUpdate) (*workflow.SessionDTO, error) {
	r.lastIndex = index
	r.lastUpdate = update
	return &workflow.SessionDTO{ID: uuid.New(), Step: "count"}, nil
}

func (r *recordingWorkflow) ConfirmNow(context.Context, uuid.UUID, uuid.UUID) (*purchaseorders.OrderDTO, error) {
	return &purchaseorders.OrderDTO{ID: uuid.New(), Status: "confirmed"}, nil
}

func (r *recordingWorkflow) CountSheet(context.Context, uuid.UUID, uuid.UUID) (*documents.Artifact, error) {
	return &documents.Artifact{ContentType: "application/pdf", Data: []byte("sheet")}, nil
}

func authedRequest(method, target, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithBusinessID(ctx, uuid.NewString())
	return req.WithContext(ctx)
}

func sessionRouter(svc workflow.Service) http.Handler {
	r := chi.NewRouter()
	r.Patch("/count-sessions/{sessionID}/rows/{index}", UpdateCountSessionRow(svc, nil))
	r.Get("/count-sessions/{sessionID}/count-sheet", CountSessionSheet(svc, nil))
	return r
}

func TestUpdateRowMapsCountedStock(t *testing.T) {
	svc := &recordingWorkflow{}
	router := sessionRouter(svc)

	req := authedRequest(http.MethodPatch, "/count-sessions/"+uuid.NewString()+"/rows/2", `{"counted_stock":7,"selected":true}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastIndex != 2 {
		t.Fatalf("expected row index 2, got %d", svc.lastIndex)
	}
	if !svc.lastUpdate.CountedStockSet || svc.lastUpdate.CountedStock == nil || *svc.lastUpdate.CountedStock != 7 {
		t.Fatalf("counted stock not mapped: %+v", svc.lastUpdate)
	}
	if svc.lastUpdate.Selected == nil || !*svc.lastUpdate.Selected {
		t.Fatalf("selection not mapped: %+v", svc.lastUpdate)
	}
}

func TestUpdateRowClearCountSendsExplicitNil(t *testing.T) {
	svc := &recordingWorkflow{}
	router := sessionRouter(svc)

	req := authedRequest(http.MethodPatch, "/count-sessions/"+uuid.NewString()+"/rows/0", `{"clear_count":true}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.lastUpdate.CountedStockSet {
		t.Fatal("clear_count must mark the counted stock as set")
	}
	if svc.lastUpdate.CountedStock != nil {
		t.Fatal("clear_count must carry a nil counted stock")
	}
}

func TestUpdateRowWithoutCountLeavesItAlone(t *testing.T) {
	svc := &recordingWorkflow{}
	router := sessionRouter(svc)

	req := authedRequest(http.MethodPatch, "/count-sessions/"+uuid.NewString()+"/rows/0", `{"quantity_to_order":4}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastUpdate.CountedStockSet {
		t.Fatal("an absent counted_stock must not count as an edit")
	}
	if svc.lastUpdate.Quantity == nil || *svc.lastUpdate.Quantity != 4 {
		t.Fatalf("quantity not mapped: %+v", svc.lastUpdate)
	}
}

func TestCountSheetDownload(t *testing.T) {
	svc := &recordingWorkflow{}
	router := sessionRouter(svc)

	req := authedRequest(http.MethodGet, "/count-sessions/"+uuid.NewString()+"/count-sheet", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestMissingAuthContextIsUnauthorized(t *testing.T) {
	svc := &recordingWorkflow{}
	router := sessionRouter(svc)

	req := httptest.NewRequest(http.MethodPatch, "/count-sessions/"+uuid.NewString()+"/rows/0", strings.NewReader(`{"counted_stock":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
