package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/molaris/molaris/internal/app"
	"github.com/molaris/molaris/internal/catalog"
	"github.com/molaris/molaris/internal/neak"
	"github.com/molaris/molaris/internal/observability"
	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/platform/cache"
	"github.com/molaris/molaris/internal/platform/db"
	"github.com/molaris/molaris/internal/quotes"
	"github.com/molaris/molaris/internal/settings"
	"github.com/molaris/molaris/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	settingsService := settings.NewService(settings.NewRepository(pool))
	patientsService := patients.NewService(patients.NewRepository(pool))
	catalogService := catalog.NewService(catalog.NewRepository(pool))

	quotesService := quotes.NewService(quotes.NewRepository(pool),
		patientsService, catalogService, settingsService, logger)

	neakClient := neak.NewClient(neak.ClientConfig{
		BaseURL:  cfg.NEAKBaseURL,
		APIKey:   cfg.NEAKAPIKey,
		Timeout:  cfg.NEAKTimeout,
		CacheTTL: cfg.NEAKCacheTTL,
	}, redisClient)
	neakService := neak.NewService(neakClient, neak.NewRepository(pool),
		patientsService, settingsService, logger)

	metrics := observability.NewMetrics()
	taskMetrics := jobs.NewTaskMetrics(metrics.Registerer())

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Expirer:   quotesService,
		Pruner:    neakService,
		Metrics:   taskMetrics,
		Cron: []jobs.CronRegistration{
			{Spec: cfg.QuoteExpireCron, Task: jobs.NewQuoteExpireTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.NEAKPruneCron, Task: jobs.NewNEAKPruneTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
