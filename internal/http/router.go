package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/jobsapi/internal/auth"
	"github.com/geocoder89/jobsapi/internal/cache"
	"github.com/geocoder89/jobsapi/internal/config"
	"github.com/geocoder89/jobsapi/internal/http/handlers"
	"github.com/geocoder89/jobsapi/internal/http/middlewares"
	"github.com/geocoder89/jobsapi/internal/observability"
	"github.com/geocoder89/jobsapi/internal/redisclient"
	"github.com/geocoder89/jobsapi/internal/repo/postgres"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redisclient.Client, cfg config.Config) *gin.Engine {
	cfgEnv := os.Getenv("APP_ENV")

	if cfgEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// metrics live on a private registry so tests can build routers freely
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware: the error handler is registered first so every later
	// stage unwinds into it
	r.Use(middlewares.ErrorHandler(log))
	r.Use(gin.CustomRecovery(middlewares.Recovered(log)))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(otelgin.Middleware("jobsapi"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// landing + docs
	r.GET("/", handlers.Landing)
	r.GET("/docs", handlers.DocsUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	// token service + guard
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTLifetime())
	authMiddleware := middlewares.NewAuthMiddleware(jwtManager)

	// rate limiting: redis-backed when configured, per-process otherwise
	var counter middlewares.WindowCounter

	if rdb != nil {
		counter = rdb
	}

	limiter := middlewares.NewRateLimiter(counter, cfg.RateLimit, cfg.RateWindow())

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, prom, cfg)
	jobsHandler := handlers.NewJobsHandler(jobsRepo, cache.New(30*time.Second))

	v1 := r.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Use(limiter.Middleware(middlewares.KeyByIP))
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)

	jobsRoutes := v1.Group("/jobs")
	jobsRoutes.Use(authMiddleware.RequireAuth())
	jobsRoutes.Use(limiter.Middleware(middlewares.KeyByUserOrIP))
	jobsRoutes.GET("", jobsHandler.ListJobs)
	jobsRoutes.POST("", jobsHandler.CreateJob)
	jobsRoutes.GET("/stats", jobsHandler.Stats)
	jobsRoutes.GET("/:id", jobsHandler.GetJobByID)
	jobsRoutes.PUT("/:id", jobsHandler.UpdateJob)
	jobsRoutes.DELETE("/:id", jobsHandler.DeleteJob)

	// terminal responder for anything the router does not know
	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"msg":  "Route does not exist",
			"code": "not_found",
		})
	})

	return r
}
