package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/carevia/carevia-api/api/swagger"
	"github.com/carevia/carevia-api/internal/handler"
	"github.com/carevia/carevia-api/internal/middleware"
	"github.com/carevia/carevia-api/internal/repository"
	"github.com/carevia/carevia-api/internal/service"
	"github.com/carevia/carevia-api/internal/upstream"
	"github.com/carevia/carevia-api/pkg/cache"
	"github.com/carevia/carevia-api/pkg/config"
	"github.com/carevia/carevia-api/pkg/database"
	"github.com/carevia/carevia-api/pkg/logger"
	corsmiddleware "github.com/carevia/carevia-api/pkg/middleware/cors"
	reqidmiddleware "github.com/carevia/carevia-api/pkg/middleware/requestid"
)

// @title Carevia API
// @version 1.0.0
// @description Hospital appointment platform: appointment lifecycle, resilient catalog reads and circuit observability.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Upstream.ClientTimeoutRaised {
		logr.Warn("upstream client timeout raised above gateway timeout",
			zap.Duration("client_timeout", cfg.Upstream.ClientTimeout),
			zap.Duration("gateway_timeout", cfg.Upstream.GatewayTimeout))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The fallback cache is an upgrade, not a dependency.
		logr.Warn("redis unavailable, catalog fallback disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	broadcaster := upstream.NewBroadcaster()
	go logCircuitChanges(broadcaster, logr)

	creds := upstream.NewMemoryCredentials(cfg.Upstream.ServiceToken)
	upstreamClient, err := upstream.NewClient(upstream.Config{
		BaseURL:             cfg.Upstream.BaseURL,
		Timeout:             cfg.Upstream.ClientTimeout,
		ServiceName:         cfg.Upstream.ServiceName,
		LoginURL:            cfg.Upstream.LoginURL,
		DegradableResources: cfg.Upstream.DegradableResources,
	}, creds, broadcaster, metricsSvc, logr)
	if err != nil {
		logr.Fatal("failed to build upstream client", zap.Error(err))
	}

	appointmentRepo := repository.NewAppointmentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	fallbackRepo := repository.NewFallbackCacheRepository(redisClient, logr)

	appointmentSvc := service.NewAppointmentService(appointmentRepo, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, logr)
	upstreamCatalogSvc := service.NewUpstreamCatalogService(
		upstreamClient, fallbackRepo, metricsSvc, logr,
		"/core/catalog", cfg.Catalog.FallbackTTL, cfg.Catalog.FallbackEnabled && redisClient != nil)
	authSvc := service.NewAuthService(cfg.JWT, logr)

	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc, metricsSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc, appointmentSvc)
	upstreamCatalogHandler := handler.NewUpstreamCatalogHandler(upstreamCatalogSvc)
	circuitHandler := handler.NewCircuitHandler(broadcaster)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.POST("/appointments", appointmentHandler.Create)
		api.GET("/appointments", appointmentHandler.List)
		api.POST("/appointments/expire-past", appointmentHandler.ExpirePast)
		api.GET("/appointments/:id", appointmentHandler.Get)
		api.PATCH("/appointments/:id", appointmentHandler.Update)
		api.DELETE("/appointments/:id", appointmentHandler.Delete)
		api.GET("/doctors/:id/appointments/today", appointmentHandler.Today)

		core := api.Group("/core/catalog")
		{
			core.GET("/hospitals", catalogHandler.Hospitals)
			core.GET("/doctors", catalogHandler.Doctors)
			core.GET("/specialties", catalogHandler.Specialties)
			core.GET("/staff", catalogHandler.Staff)
			core.GET("/kpis", catalogHandler.KPIs)
		}

		catalog := api.Group("/catalog")
		{
			catalog.GET("/hospitals", upstreamCatalogHandler.Hospitals)
			catalog.GET("/doctors", upstreamCatalogHandler.Doctors)
			catalog.GET("/specialties", upstreamCatalogHandler.Specialties)
			catalog.GET("/staff", upstreamCatalogHandler.Staff)
			catalog.GET("/kpis", upstreamCatalogHandler.KPIs)
		}

		api.GET("/upstream/circuit", circuitHandler.State)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// logCircuitChanges is the broadcaster's logging observer. It only reports
// transitions, not every publication.
func logCircuitChanges(b *upstream.Broadcaster, logr *zap.Logger) {
	ch, cancel := b.Subscribe()
	defer cancel()

	wasOpen := false
	for state := range ch {
		if state.Open == wasOpen {
			continue
		}
		wasOpen = state.Open
		if state.Open {
			fields := []zap.Field{zap.Time("changed_at", state.ChangedAt)}
			if state.LastError != nil {
				fields = append(fields,
					zap.String("code", state.LastError.Code),
					zap.Int("status", state.LastError.Status))
			}
			logr.Warn("upstream circuit opened", fields...)
		} else {
			logr.Info("upstream circuit closed", zap.Time("changed_at", state.ChangedAt))
		}
	}
}
