package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerly/ledgerly/internal/app"
	"github.com/ledgerly/ledgerly/internal/auth"
	"github.com/ledgerly/ledgerly/internal/guard"
	"github.com/ledgerly/ledgerly/internal/nav"
	"github.com/ledgerly/ledgerly/internal/observability"
	"github.com/ledgerly/ledgerly/internal/platform/cache"
	"github.com/ledgerly/ledgerly/internal/platform/db"
	"github.com/ledgerly/ledgerly/internal/shared"
	"github.com/ledgerly/ledgerly/internal/tenants"
	"github.com/ledgerly/ledgerly/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Sessions degrade to anonymous without Redis; keep serving so the
		// health endpoint and login page stay reachable.
		logger.Warn("redis unavailable", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "ledgerly_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	tenantsRepo := tenants.NewRepository(dbpool)
	tenantsService := tenants.NewService(tenantsRepo)
	tenantsHandler := tenants.NewHandler(logger, tenantsService)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tenantsService)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	guardMiddleware := guard.Middleware{Logger: logger, Metrics: metrics}
	onboardingGate := guard.NewOnboardingGate(tenantsService, logger, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		TenantsHandler: tenantsHandler,
		NavHandler:     nav.NewHandler(),
		Guard:          guardMiddleware,
		OnboardingGate: onboardingGate,
		JobsHandler:    jobsHandler,
		Metrics:        metrics,
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
