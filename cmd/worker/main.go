package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-crm/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-crm/internal/jobs"
	"github.com/odyssey-erp/odyssey-crm/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/mail"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/customers"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
	"github.com/odyssey-erp/odyssey-crm/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	catalog := cache.NewVersioned(redisClient, "crm:catalog", cfg.CatalogCacheTTL, logger)
	productService := products.NewService(products.NewRepository(store.DB), catalog, logger)
	customerService := customers.NewService(customers.NewRepository(store.DB))
	orderService := orders.NewService(orders.NewRepository(store.DB), customerService, productService, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client := jobs.NewClient(redisOpts)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("close job client", slog.Any("error", err))
		}
	}()

	mailJob := &jobs.OrderMailJob{
		Orders:    orderService,
		Mailer:    mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom),
		Reminders: client,
		Templates: templates,
		Logger:    logger,
		Metrics:   jobmetrics.NewMetrics(nil),
	}

	scanTask, err := jobs.NewRenewalScanTask(cfg.RenewalLookaheadDays)
	if err != nil {
		logger.Error("build renewal scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderCreated, Handler: mailJob.HandleOrderCreated},
			{Type: jobs.TaskRenewalScan, Handler: mailJob.HandleRenewalScan},
			{Type: jobs.TaskRenewalReminder, Handler: mailJob.HandleRenewalReminder},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RenewalScanCron, Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
