package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-widget-api/internal/repository"
	"github.com/noah-isme/sma-widget-api/internal/service"
	"github.com/noah-isme/sma-widget-api/pkg/cache"
	"github.com/noah-isme/sma-widget-api/pkg/clock"
	"github.com/noah-isme/sma-widget-api/pkg/config"
	"github.com/noah-isme/sma-widget-api/pkg/database"
	"github.com/noah-isme/sma-widget-api/pkg/jobs"
	"github.com/noah-isme/sma-widget-api/pkg/logger"
)

// @title Schedule Widget API
// @version 1.0.0
// @description Projects synced timetables and exams into home screen widget views.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, widget cache disabled", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	preferenceRepo := repository.NewPreferenceRepository(db)
	instanceRepo := repository.NewWidgetInstanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Widgets.CacheTTL, logr, cfg.Widgets.CacheEnabled && redisClient != nil)
	realClock := clock.NewReal(cfg.Widgets.Location())
	snapshotSvc := service.NewSnapshotService(preferenceRepo, cacheSvc, validate, realClock, logr)
	widgetSvc := service.NewWidgetService(snapshotSvc, cacheSvc, metricsSvc, service.WidgetServiceConfig{
		CacheTTL:   cfg.Widgets.CacheTTL,
		CountLimit: cfg.Widgets.CountLimit,
		LinkScheme: cfg.Widgets.LinkScheme,
	}, logr)
	scheduleSvc := service.NewScheduleService(snapshotSvc, cfg.Widgets.UpcomingLimit, logr)
	plannerSvc := service.NewUpdatePlanner(snapshotSvc, instanceRepo, realClock, metricsSvc, logr)

	queue := jobs.NewQueue("widget-refresh", jobs.QueueConfig{
		Workers:    cfg.Updates.Workers,
		BufferSize: cfg.Updates.BufferSize,
		MaxRetries: cfg.Updates.MaxRetries,
		RetryDelay: cfg.Updates.RetryDelay,
		Logger:     logr,
	})
	refreshSvc := service.NewRefreshService(queue, cacheSvc, plannerSvc, metricsSvc, logr)
	queue.Handle(service.JobTypeWidgetRefresh, refreshSvc.Process)
	queue.Start(ctx)
	defer queue.Stop()

	registrySvc := service.NewWidgetRegistryService(instanceRepo, plannerSvc, validate, logr)
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		PairingSecretHash: cfg.Pairing.SecretHash,
		Issuer:            "sma-widget-api",
	})

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(snapshotSvc, logr)
	}

	r := newRouter(cfg, logr, routerDeps{
		metrics:  metricsSvc,
		db:       db,
		auth:     authSvc,
		snapshot: snapshotSvc,
		schedule: scheduleSvc,
		widgets:  widgetSvc,
		planner:  plannerSvc,
		refresh:  refreshSvc,
		registry: registrySvc,
		exports:  exportSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
