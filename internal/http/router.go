// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-recurring-backend/internal/config"
	"github.com/tbourn/go-recurring-backend/internal/http/handlers"
	"github.com/tbourn/go-recurring-backend/internal/http/middleware"
	"github.com/tbourn/go-recurring-backend/internal/repo"
	"github.com/tbourn/go-recurring-backend/internal/services"
)

// schedulerShim adapts the Scheduler and the collaborators chosen at
// composition time to the handlers.SchedulerService interface. The start
// endpoint deliberately ignores the request context: the polling loop must
// outlive the HTTP request that armed it, so the shim carries the
// application-lifetime context instead.
type schedulerShim struct {
	appCtx       context.Context
	sched        *services.Scheduler
	provider     services.DueOrdersProvider
	materializer services.OrderMaterializer
}

// Start arms the periodic trigger with the composed collaborators.
func (s schedulerShim) Start(context.Context) {
	s.sched.Start(s.appCtx, s.provider, s.materializer)
}

// Stop proxies Scheduler.Stop.
func (s schedulerShim) Stop() { s.sched.Stop() }

// Running proxies Scheduler.Running.
func (s schedulerShim) Running() bool { return s.sched.Running() }

// Interval reports the configured poll interval.
func (s schedulerShim) Interval() time.Duration { return s.sched.Interval }

// ExecuteAllPending proxies the manual trigger.
func (s schedulerShim) ExecuteAllPending(ctx context.Context) (int, error) {
	return s.sched.ExecuteAllPending(ctx)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(appCtx context.Context, r *gin.Engine, db *gorm.DB, sched *services.Scheduler, provider services.DueOrdersProvider, materializer services.OrderMaterializer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation for the manual trigger (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			Scope:  "execute_pending",
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/scheduler
	roSvc := &services.RecurringOrderService{DB: db}
	statsSvc := &services.StatsService{DB: db, Scheduler: sched}
	logSvc := &services.ExecutionLogService{DB: db}
	shim := schedulerShim{appCtx: appCtx, sched: sched, provider: provider, materializer: materializer}

	h := handlers.New(roSvc, shim, statsSvc, logSvc)
	h.DB = db
	h.IdempotencyTTL = cfg.IdempotencyTTL
	h.RetentionDays = cfg.Scheduler.RetentionDays

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Definitions
		api.POST("/recurring/orders", h.CreateRecurringOrder)
		api.GET("/recurring/orders", h.ListRecurringOrders)
		api.GET("/recurring/orders/:id", h.GetRecurringOrder)
		api.POST("/recurring/orders/:id/pause", h.PauseRecurringOrder)
		api.POST("/recurring/orders/:id/resume", h.ResumeRecurringOrder)
		api.DELETE("/recurring/orders/:id", h.DeleteRecurringOrder)

		// Execution core
		api.POST("/recurring/execute", h.ExecutePending)
		api.GET("/recurring/stats", h.GetStats)
		api.GET("/recurring/logs", h.ListLogs)
		api.DELETE("/recurring/logs", h.ClearLogs)

		// Scheduler control
		api.POST("/recurring/scheduler/start", h.StartScheduler)
		api.POST("/recurring/scheduler/stop", h.StopScheduler)
		api.GET("/recurring/scheduler", h.SchedulerStatus)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
