package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/molaris/molaris/internal/app"
	"github.com/molaris/molaris/internal/catalog"
	"github.com/molaris/molaris/internal/invoices"
	"github.com/molaris/molaris/internal/neak"
	"github.com/molaris/molaris/internal/observability"
	"github.com/molaris/molaris/internal/odontogram"
	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/platform/cache"
	"github.com/molaris/molaris/internal/platform/db"
	"github.com/molaris/molaris/internal/quotes"
	"github.com/molaris/molaris/internal/settings"
	"github.com/molaris/molaris/internal/staff"
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

	validate := validator.New()
	metrics := observability.NewMetrics()

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo)
	settingsHandler := settings.NewHandler(logger, settingsService, validate)

	staffRepo := staff.NewRepository(pool)
	staffService := staff.NewService(staffRepo, redisClient, cfg.SessionTTL, logger)
	staffHandler := staff.NewHandler(logger, staffService, validate)

	patientsRepo := patients.NewRepository(pool)
	patientsService := patients.NewService(patientsRepo)
	patientsHandler := patients.NewHandler(logger, patientsService, validate)

	odontogramRepo := odontogram.NewRepository(pool)
	odontogramService := odontogram.NewService(odontogramRepo)
	odontogramHandler := odontogram.NewHandler(logger, odontogramService, validate)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, validate)

	quotesRepo := quotes.NewRepository(pool)
	quotesService := quotes.NewService(quotesRepo, patientsService, catalogService, settingsService, logger)
	quotesHandler := quotes.NewHandler(logger, quotesService, validate, metrics)

	invoicesRepo := invoices.NewRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, patientsService, quotesService, settingsService, logger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService, validate, metrics)

	neakClient := neak.NewClient(neak.ClientConfig{
		BaseURL:  cfg.NEAKBaseURL,
		APIKey:   cfg.NEAKAPIKey,
		Timeout:  cfg.NEAKTimeout,
		CacheTTL: cfg.NEAKCacheTTL,
	}, redisClient)
	neakRepo := neak.NewRepository(pool)
	neakService := neak.NewService(neakClient, neakRepo, patientsService, settingsService, logger)
	neakHandler := neak.NewHandler(logger, neakService, validate)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              pool,
		StaffService:      staffService,
		StaffHandler:      staffHandler,
		PatientsHandler:   patientsHandler,
		OdontogramHandler: odontogramHandler,
		CatalogHandler:    catalogHandler,
		QuotesHandler:     quotesHandler,
		InvoicesHandler:   invoicesHandler,
		NEAKHandler:       neakHandler,
		SettingsHandler:   settingsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
