package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/restockhq/restock-backend/api/controllers"
	"github.com/restockhq/restock-backend/api/middleware"
	"github.com/restockhq/restock-backend/internal/catalog"
	"github.com/restockhq/restock-backend/internal/documents"
	"github.com/restockhq/restock-backend/internal/purchaseorders"
	"github.com/restockhq/restock-backend/internal/suppliers"
	"github.com/restockhq/restock-backend/internal/workflow"
	"github.com/restockhq/restock-backend/pkg/config"
	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.Pinger
	RedisClient *redis.Client
	Registry    *prometheus.Registry

	Catalog   catalog.Service
	Orders    purchaseorders.Service
	Documents documents.Service
	Workflow  workflow.Service
	Suppliers suppliers.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisClient))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if deps.RedisClient != nil {
			r.Use(middleware.WriteRateLimit(cfg.RateLimit, deps.RedisClient, logg))
			r.Use(middleware.Idempotency(deps.RedisClient, cfg.Workflow.IdempotencyTTL, logg))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Post("/", controllers.CreateProduct(deps.Catalog, logg))
			r.Get("/count-sheet", controllers.ProductCountSheet(deps.Documents, logg))
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(deps.Catalog, logg))
				r.Patch("/", controllers.UpdateProduct(deps.Catalog, logg))
				r.Put("/stock", controllers.UpdateProductStock(deps.Catalog, logg))
			})
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.ListSuppliers(deps.Suppliers, logg))
			r.Post("/", controllers.CreateSupplier(deps.Suppliers, logg))
			r.Route("/{supplierID}", func(r chi.Router) {
				r.Get("/", controllers.GetSupplier(deps.Suppliers, logg))
				r.Patch("/", controllers.UpdateSupplier(deps.Suppliers, logg))
				r.Delete("/", controllers.DeleteSupplier(deps.Suppliers, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(deps.Suppliers, logg))
			r.Post("/", controllers.CreateCategory(deps.Suppliers, logg))
			r.Route("/{categoryID}", func(r chi.Router) {
				r.Patch("/", controllers.UpdateCategory(deps.Suppliers, logg))
				r.Delete("/", controllers.DeleteCategory(deps.Suppliers, logg))
			})
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", controllers.ListPurchaseOrders(deps.Orders, logg))
			r.Post("/", controllers.CreatePurchaseOrder(deps.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetPurchaseOrder(deps.Orders, logg))
				r.Put("/", controllers.UpdatePurchaseOrder(deps.Orders, logg))
				r.Delete("/", controllers.DeletePurchaseOrder(deps.Orders, logg))
				r.Post("/confirm", controllers.ConfirmPurchaseOrder(deps.Orders, logg))
				r.Get("/document", controllers.PurchaseOrderDocument(deps.Orders, deps.Documents, logg))
			})
		})

		r.Route("/count-sessions", func(r chi.Router) {
			r.Post("/", controllers.StartCountSession(deps.Workflow, logg))
			r.Post("/resume/{orderID}", controllers.ResumeCountSession(deps.Workflow, logg))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.GetCountSession(deps.Workflow, logg))
				r.Put("/filters", controllers.UpdateCountSessionFilters(deps.Workflow, logg))
				r.Post("/load", controllers.LoadCountSession(deps.Workflow, logg))
				r.Patch("/rows/{index}", controllers.UpdateCountSessionRow(deps.Workflow, logg))
				r.Post("/advance", controllers.AdvanceCountSession(deps.Workflow, logg))
				r.Post("/back", controllers.BackCountSession(deps.Workflow, logg))
				r.Post("/save-draft", controllers.SaveCountSessionDraft(deps.Workflow, logg))
				r.Post("/confirm", controllers.ConfirmCountSession(deps.Workflow, logg))
				r.Get("/count-sheet", controllers.CountSessionSheet(deps.Workflow, logg))
			})
		})
	})

	return r
}
