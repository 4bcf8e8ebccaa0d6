// Command server is the entry point for the recurring-order backend.
//
// Responsibilities:
//   - Load .env (best effort) and typed configuration
//   - Configure zerolog and OpenTelemetry tracing
//   - Open the SQLite database and run migrations
//   - Compose the executor, scheduler, and HTTP router
//   - Serve HTTP with sane timeouts and shut down gracefully on signal
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-recurring-backend/internal/config"
	httpapi "github.com/tbourn/go-recurring-backend/internal/http"
	"github.com/tbourn/go-recurring-backend/internal/observability"
	"github.com/tbourn/go-recurring-backend/internal/repo"
	"github.com/tbourn/go-recurring-backend/internal/services"
	"github.com/tbourn/go-recurring-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(appCtx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Execution core
	executor := &services.RecurringOrderExecutor{
		DB:          db,
		Validator:   services.StubPaymentValidator{},
		Notifier:    services.LogNotifier{},
		LogCapacity: cfg.Scheduler.LogCapacity,
	}
	sched := services.NewScheduler(executor, cfg.Scheduler.PollInterval)
	provider := &services.DBDueOrdersProvider{DB: db}
	materializer := &services.DBOrderMaterializer{DB: db}
	if cfg.Scheduler.AutoStart {
		sched.Start(appCtx, provider, materializer)
	}

	r := gin.New()
	httpapi.RegisterRoutes(appCtx, r, db, sched, provider, materializer, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-appCtx.Done()
	log.Info().Msg("shutdown signal received")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
	log.Info().Msg("server stopped")
}
