package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-crm/internal/app"
	"github.com/odyssey-erp/odyssey-crm/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-crm/internal/observability"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/customers"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
	"github.com/odyssey-erp/odyssey-crm/jobs"
	"github.com/odyssey-erp/odyssey-crm/migrations"
	"github.com/odyssey-erp/odyssey-crm/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	store, err := db.Open(ctx, db.Options{Driver: cfg.DBDriver, PGDSN: cfg.PGDSN, SQLitePath: cfg.SQLitePath, MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	migrateOnly := len(os.Args) > 1 && os.Args[1] == "migrate"
	if cfg.DBAutoMigrate || migrateOnly {
		if err := store.Migrate(migrations.FS, app.Models()...); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database schema up to date", slog.String("driver", store.Dialect()))
	}
	if migrateOnly {
		return
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "crm_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	pdfClient := report.NewClient(cfg.GotenbergURL)

	catalog := cache.NewVersioned(redisClient, "crm:catalog", cfg.CatalogCacheTTL, logger)
	productService := products.NewService(products.NewRepository(store.DB), catalog, logger)
	customerService := customers.NewService(customers.NewRepository(store.DB))
	orderService := orders.NewService(orders.NewRepository(store.DB), customerService, productService, logger)

	var (
		jobHandler *jobs.Handler
		inspector  *asynq.Inspector
	)
	if cfg.JobsEnabled {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("close job client", slog.Any("error", err))
			}
		}()
		orderService.SetNotifier(jobClient)
		inspector = asynq.NewInspector(redisOpts)
		defer func() { _ = inspector.Close() }()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Metrics:          metrics,
		Database:         store,
		CustomersHandler: customers.NewHandler(logger, customerService, templates, csrfManager),
		CustomersAPI:     customers.NewAPI(logger, customerService),
		ProductsHandler:  products.NewHandler(logger, productService, templates, csrfManager),
		ProductsAPI:      products.NewAPI(logger, productService),
		OrdersHandler:    orders.NewHandler(logger, orderService, customerService, productService, templates, csrfManager, pdfClient),
		OrdersAPI:        orders.NewAPI(logger, orderService),
		JobHandler:       jobHandler,
		ReportHandler:    report.NewHandler(pdfClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server starting", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.Any("error", err))
	}
	logger.Info("http server stopped")
}
