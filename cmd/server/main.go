package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herd-analytics/internal/cache"
	"herd-analytics/internal/config"
	"herd-analytics/internal/controller"
	"herd-analytics/internal/logger"
	"herd-analytics/internal/repository"
	"herd-analytics/internal/router"
	"herd-analytics/internal/scheduler"
	"herd-analytics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	envFile := flag.String("env", "", "optional .env file to load before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	baseLogger := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.OpenPostgres(cfg.PGDSN, logger.Named(baseLogger, "gorm"))
	if err != nil {
		baseLogger.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		baseLogger.Error("failed to migrate database", "error", err.Error())
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.CacheEnabled() {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = redisClient.Close() }()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// reports are still served, straight from postgres
			baseLogger.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err.Error())
		}
	} else {
		baseLogger.Warn("REDIS_ADDR not set, report cache disabled")
	}
	reportCache := cache.New(redisClient, cfg.CacheTTL, logger.Named(baseLogger, "cache"))

	ledgerRepo := repository.NewLedgerRepository(db)
	analyticsSvc := service.NewAnalyticsService(ledgerRepo, reportCache,
		service.WithLogger(logger.Named(baseLogger, "svc.analytics")))
	ledgerSvc := service.NewLedgerService(ledgerRepo, reportCache,
		service.WithLogger(logger.Named(baseLogger, "svc.ledger")))

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(router.Options{
		Analytics:    controller.NewAnalyticsController(analyticsSvc, logger.Named(baseLogger, "controller.analytics")),
		Ledger:       controller.NewLedgerController(ledgerSvc, logger.Named(baseLogger, "controller.ledger")),
		Tenants:      analyticsSvc,
		TenantHeader: cfg.TenantHeader,
		HealthChecks: map[string]router.HealthCheck{
			"postgres": func(ctx context.Context) error { return repository.Ping(ctx, db) },
			"redis":    reportCache.Ping,
		},
		Logger: logger.Named(baseLogger, "http"),
	})

	sched := scheduler.NewScheduler(cfg.WarmupCron, cfg.WarmupTimeout, ledgerRepo, analyticsSvc, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Error("failed to start scheduler", "error", err.Error())
		os.Exit(1)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      engine,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", "addr", cfg.AppAddr, "cache_enabled", reportCache.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http server crashed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", "error", err.Error())
	}
}
