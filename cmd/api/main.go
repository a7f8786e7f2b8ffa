package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/restockhq/restock-backend/api/routes"
	"github.com/restockhq/restock-backend/internal/catalog"
	"github.com/restockhq/restock-backend/internal/cron"
	"github.com/restockhq/restock-backend/internal/documents"
	"github.com/restockhq/restock-backend/internal/purchaseorders"
	"github.com/restockhq/restock-backend/internal/suppliers"
	"github.com/restockhq/restock-backend/internal/workflow"
	"github.com/restockhq/restock-backend/pkg/config"
	"github.com/restockhq/restock-backend/pkg/db"
	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/metrics"
	"github.com/restockhq/restock-backend/pkg/migrate"
	"github.com/restockhq/restock-backend/pkg/redis"
	"github.com/restockhq/restock-backend/pkg/upstream"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)

	tokenSource, err := upstream.NewHTTPTokenSource(cfg.Upstream.BaseURL, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create renderer token source", err)
		os.Exit(1)
	}

	rendererClient, err := upstream.New(cfg.Upstream, upstream.Options{
		TokenSource: tokenSource,
		Metrics:     upstreamMetrics,
		Logger:      logg,
		Invalidate: func(ctx context.Context) {
			logg.Warn(ctx, "renderer credential invalidated, operator re-auth required")
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create renderer client", err)
		os.Exit(1)
	}

	documentService, err := documents.NewService(rendererClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create document service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), cfg.Workflow)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	orderRepo := purchaseorders.NewRepository(dbClient.DB())
	orderService, err := purchaseorders.NewService(orderRepo, logg, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase order service", err)
		os.Exit(1)
	}

	supplierService, err := suppliers.NewService(suppliers.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier service", err)
		os.Exit(1)
	}

	sessionStore := workflow.NewStore(cfg.Workflow.SessionTTL)
	workflowService, err := workflow.NewService(sessionStore, catalogService, orderService, documentService, logg, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create workflow service", err)
		os.Exit(1)
	}

	if cfg.Cron.Enabled {
		cronLock, err := cron.NewRedisLock(redisClient, redisClient.MaintenanceLockKey(), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create maintenance lock", err)
			os.Exit(1)
		}
		retentionJob, err := cron.NewDraftRetentionJob(cron.DraftRetentionJobParams{
			Logger:     logg,
			Store:      orderRepo,
			Retention:  cfg.Cron.DraftRetention,
			PurgeAfter: cfg.Cron.PurgeAfter,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create draft retention job", err)
			os.Exit(1)
		}
		sweepJob, err := cron.NewSessionSweepJob(logg, sessionStore)
		if err != nil {
			logg.Error(context.Background(), "failed to create session sweep job", err)
			os.Exit(1)
		}
		maintenance, err := cron.NewService(cron.ServiceParams{
			Logger:   logg,
			Lock:     cronLock,
			Metrics:  metrics.NewCronJobMetrics(registry),
			Interval: cfg.Cron.Interval,
			Jobs:     []cron.Job{retentionJob, sweepJob},
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create maintenance service", err)
			os.Exit(1)
		}
		go func() {
			if err := maintenance.Run(context.Background()); err != nil && err != context.Canceled {
				logg.Error(context.Background(), "maintenance loop stopped unexpectedly", err)
			}
		}()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    dbClient,
			RedisClient: redisClient,
			Registry:    registry,
			Catalog:     catalogService,
			Orders:      orderService,
			Documents:   documentService,
			Workflow:    workflowService,
			Suppliers:   supplierService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
