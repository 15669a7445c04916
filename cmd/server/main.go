package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TrustArcade/trustgate/internal/config"
	"github.com/TrustArcade/trustgate/internal/handler"
	"github.com/TrustArcade/trustgate/internal/middleware"
	"github.com/TrustArcade/trustgate/internal/pkg/logger"
	"github.com/TrustArcade/trustgate/internal/repository"
	"github.com/TrustArcade/trustgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 0. Initialize Logger
	logger.Init("info")

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Persistence
	// Active sanctions (Redis > Memory)
	var sanctionStore repository.SanctionStore
	if cfg.Redis.Addr != "" {
		redisStore, err := repository.NewRedisSanctionStore(cfg.Redis)
		if err == nil {
			logger.Info("Connected to Redis, sharing sanction table")
			sanctionStore = redisStore
		} else {
			logger.Error("Failed to connect to Redis, falling back to memory", "error", err)
		}
	}
	if sanctionStore == nil {
		sanctionStore = repository.NewMemorySanctionStore()
	}

	// Audit persistence (Postgres > local file only)
	var auditRepo service.AuditRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("Connected to PostgreSQL")
			auditRepo = repository.NewPostgresAuditRepo(db)
		} else {
			logger.Error("Failed to connect to DB, audit events will be file-only", "error", err)
		}
	}

	// 3. Initialize Core Services
	auditSvc, err := service.NewAuditService(cfg.Audit.Dir, cfg.Audit.BufferSize, auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	clientManager := service.NewClientManager(cfg)
	feed := service.NewDetectionFeed()
	sanctionEngine := service.NewSanctionEngine(sanctionStore, auditSvc)

	engine := service.NewTrustEngine(cfg.Engine, service.TrustEngineDeps{
		Profiles:     repository.NewMemoryProfileStore(),
		Fingerprints: repository.NewMemoryFingerprintStore(),
		Baselines:    repository.NewMemoryBaselineStore(cfg.Engine.BaselineMax),
		Detections:   repository.NewMemoryDetectionStore(cfg.Engine.DetectionLogMax),
		Sanctions:    sanctionEngine,
		Audit:        auditSvc,
		Feed:         feed,
	})
	engine.StartSweeper(time.Duration(cfg.Engine.SweepIntervalMinutes) * time.Minute)

	// 4. Initialize Handlers
	sessionHandler := handler.NewSessionHandler(engine)
	playerHandler := handler.NewPlayerHandler(engine)
	adminHandler := handler.NewAdminHandler(engine)
	auditHandler := handler.NewAuditHandler(auditSvc)
	liveHandler := handler.NewLiveHandler(feed)

	// 5. Setup Router
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "trustgate"})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API V1 Routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, clientManager))
	v1.Use(middleware.RateLimitMiddleware(clientManager))
	{
		v1.POST("/sessions/analyze", sessionHandler.Analyze)
		v1.GET("/players/:wallet/ban", playerHandler.CheckBan)
		v1.GET("/players/:wallet", playerHandler.GetProfile)
	}

	admin := r.Group("/v1/admin")
	admin.Use(middleware.AdminMiddleware(cfg))
	{
		admin.DELETE("/players/:wallet/sanctions/:id", adminHandler.LiftSanction)
		admin.POST("/players/:wallet/false-positive", adminHandler.ReportFalsePositive)
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/detections", adminHandler.RecentDetections)
		admin.GET("/detections/live", liveHandler.Detections)
		admin.GET("/audit", auditHandler.List)
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("TrustGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	engine.StopSweeper()
	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
