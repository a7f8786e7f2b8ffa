package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restockhq/restock-backend/internal/catalog"
	"github.com/restockhq/restock-backend/internal/documents"
	"github.com/restockhq/restock-backend/internal/purchaseorders"
	"github.com/restockhq/restock-backend/internal/suppliers"
	"github.com/restockhq/restock-backend/internal/workflow"
	pkgauth "github.com/restockhq/restock-backend/pkg/auth"
	"github.com/restockhq/restock-backend/pkg/config"
	"github.com/restockhq/restock-backend/pkg/db/models"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/pagination"
)

type stubCatalog struct{}

func (stubCatalog) ListProducts(context.Context, uuid.UUID, catalog.ListFilters, pagination.Params) (*pagination.Page[catalog.ProductDTO], error) {
	return &pagination.Page[catalog.ProductDTO]{Items: []catalog.ProductDTO{}, PageNumber: 1, PageSize: 20, TotalPages: 1}, nil
}
func (stubCatalog) GetProduct(context.Context, uuid.UUID, uuid.UUID) (*catalog.ProductDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}
func (stubCatalog) CreateProduct(context.Context, uuid.UUID, catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{ID: uuid.New()}, nil
}
func (stubCatalog) UpdateProduct(context.Context, uuid.UUID, uuid.UUID, catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{ID: uuid.New()}, nil
}
func (stubCatalog) UpdateStock(context.Context, uuid.UUID, uuid.UUID, int) error { return nil }
func (stubCatalog) DrainProducts(context.Context, uuid.UUID, catalog.ListFilters) ([]models.Product, error) {
	return nil, nil
}

type stubOrders struct {
	confirmErr error
}

func (s stubOrders) Create(context.Context, uuid.UUID, uuid.UUID, purchaseorders.CreateOrderInput) (*purchaseorders.OrderDTO, error) {
	return &purchaseorders.OrderDTO{ID: uuid.New(), Status: "draft"}, nil
}
func (s stubOrders) Update(context.Context, uuid.UUID, uuid.UUID, purchaseorders.UpdateOrderInput) (*purchaseorders.OrderDTO, error) {
	return &purchaseorders.OrderDTO{ID: uuid.New(), Status: "draft"}, nil
}
func (s stubOrders) Confirm(context.Context, uuid.UUID, uuid.UUID) (*purchaseorders.OrderDTO, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &purchaseorders.OrderDTO{ID: uuid.New(), Status: "confirmed"}, nil
}
func (s stubOrders) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (s stubOrders) Get(context.Context, uuid.UUID, uuid.UUID) (*purchaseorders.OrderDTO, error) {
	return &purchaseorders.OrderDTO{ID: uuid.New(), Status: "draft"}, nil
}
func (s stubOrders) List(context.Context, uuid.UUID, purchaseorders.ListFilters, pagination.Params) (*pagination.Page[purchaseorders.OrderSummaryDTO], error) {
	return &pagination.Page[purchaseorders.OrderSummaryDTO]{Items: []purchaseorders.OrderSummaryDTO{}}, nil
}

type stubDocuments struct{}

func (stubDocuments) CountSheet(context.Context, catalog.ListFilters) (*documents.Artifact, error) {
	return &documents.Artifact{ContentType: "application/pdf", Data: []byte("sheet")}, nil
}
func (stubDocuments) OrderDocument(context.Context, uuid.UUID) (*documents.Artifact, error) {
	return &documents.Artifact{ContentType: "application/pdf", Data: []byte("order")}, nil
}

type stubWorkflow struct{}

func (stubWorkflow) Start(context.Context, uuid.UUID, uuid.UUID, workflow.StartInput) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "filters"}, nil
}
func (stubWorkflow) UpdateFilters(context.Context, uuid.UUID, uuid.UUID, workflow.StartInput) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "filters"}, nil
}
func (stubWorkflow) LoadCount(context.Context, uuid.UUID, uuid.UUID) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "count"}, nil
}
func (stubWorkflow) UpdateRow(context.Context, uuid.UUID, uuid.UUID, int, workflow.RowUpdate) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "count"}, nil
}
func (stubWorkflow) Advance(context.Context, uuid.UUID, uuid.UUID) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "review"}, nil
}
func (stubWorkflow) Back(context.Context, uuid.UUID, uuid.UUID) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "count"}, nil
}
func (stubWorkflow) SaveDraft(context.Context, uuid.UUID, uuid.UUID) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "review"}, nil
}
func (stubWorkflow) ConfirmNow(context.Context, uuid.UUID, uuid.UUID) (*purchaseorders.OrderDTO, error) {
	return &purchaseorders.OrderDTO{ID: uuid.New(), Status: "confirmed", Total: decimal.NewFromInt(100)}, nil
}
func (stubWorkflow) ResumeDraft(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "review"}, nil
}
func (stubWorkflow) Get(context.Context, uuid.UUID, uuid.UUID) (*workflow.SessionDTO, error) {
	return &workflow.SessionDTO{ID: uuid.New(), Step: "count"}, nil
}
func (stubWorkflow) CountSheet(context.Context, uuid.UUID, uuid.UUID) (*documents.Artifact, error) {
	return &documents.Artifact{ContentType: "application/pdf", Data: []byte("sheet")}, nil
}

type stubSuppliers struct{}

func (stubSuppliers) ListSuppliers(context.Context, uuid.UUID) ([]suppliers.SupplierDTO, error) {
	return []suppliers.SupplierDTO{{ID: uuid.New(), Name: "Ferretera Sur", IsActive: true}}, nil
}
func (stubSuppliers) GetSupplier(context.Context, uuid.UUID, uuid.UUID) (*suppliers.SupplierDTO, error) {
	return &suppliers.SupplierDTO{ID: uuid.New(), Name: "Ferretera Sur"}, nil
}
func (stubSuppliers) CreateSupplier(context.Context, uuid.UUID, suppliers.SupplierInput) (*suppliers.SupplierDTO, error) {
	return &suppliers.SupplierDTO{ID: uuid.New(), Name: "Ferretera Sur"}, nil
}
func (stubSuppliers) UpdateSupplier(context.Context, uuid.UUID, uuid.UUID, suppliers.SupplierInput) (*suppliers.SupplierDTO, error) {
	return &suppliers.SupplierDTO{ID: uuid.New(), Name: "Ferretera Sur"}, nil
}
func (stubSuppliers) DeleteSupplier(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (stubSuppliers) ListCategories(context.Context, uuid.UUID) ([]suppliers.CategoryDTO, error) {
	return []suppliers.CategoryDTO{}, nil
}
func (stubSuppliers) CreateCategory(context.Context, uuid.UUID, string) (*suppliers.CategoryDTO, error) {
	return &suppliers.CategoryDTO{ID: uuid.New(), Name: "Tornillería"}, nil
}
func (stubSuppliers) UpdateCategory(context.Context, uuid.UUID, uuid.UUID, string) (*suppliers.CategoryDTO, error) {
	return &suppliers.CategoryDTO{ID: uuid.New(), Name: "Tornillería"}, nil
}
func (stubSuppliers) DeleteCategory(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret-router-test-secret",
			Issuer:            "restock-test",
			ExpirationMinutes: 15,
		},
	}
}

func testRouter(orders purchaseorders.Service) http.Handler {
	return NewRouter(Deps{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "router-test"}),
		Catalog:   stubCatalog{},
		Orders:    orders,
		Documents: stubDocuments{},
		Workflow:  stubWorkflow{},
		Suppliers: stubSuppliers{},
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:     uuid.New(),
		BusinessID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := testRouter(stubOrders{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	router := testRouter(stubOrders{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestListProductsWithToken(t *testing.T) {
	router := testRouter(stubOrders{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=1", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data pagination.Page[catalog.ProductDTO] `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data.PageNumber != 1 {
		t.Fatalf("unexpected page payload: %+v", envelope.Data)
	}
}

func TestStartCountSession(t *testing.T) {
	router := testRouter(stubOrders{})
	supplier := uuid.NewString()
	body := `{"supplier_id":"` + supplier + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/count-sessions", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConfirmConflictMapsTo422(t *testing.T) {
	router := testRouter(stubOrders{confirmErr: pkgerrors.New(pkgerrors.CodeStateConflict, "already confirmed")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase-orders/"+uuid.NewString()+"/confirm", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRowPatchRejectsBadIndex(t *testing.T) {
	router := testRouter(stubOrders{})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/count-sessions/"+uuid.NewString()+"/rows/not-a-number", strings.NewReader(`{"counted_stock":3}`))
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOrderDocumentStreamsArtifact(t *testing.T) {
	router := testRouter(stubOrders{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders/"+uuid.NewString()+"/document", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected pdf content type, got %q", ct)
	}
	if rec.Body.String() != "order" {
		t.Fatalf("unexpected artifact body %q", rec.Body.String())
	}
}

func TestCreateSupplierValidatesEmail(t *testing.T) {
	router := testRouter(stubOrders{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers", strings.NewReader(`{"name":"Ferretera Sur","email":"not-an-email"}`))
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListSuppliersWithToken(t *testing.T) {
	router := testRouter(stubOrders{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data []suppliers.SupplierDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Ferretera Sur" {
		t.Fatalf("unexpected suppliers payload: %+v", envelope.Data)
	}
}
