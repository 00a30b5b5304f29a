package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-widget-api/api/swagger"
	"github.com/noah-isme/sma-widget-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-widget-api/internal/middleware"
	"github.com/noah-isme/sma-widget-api/internal/service"
	"github.com/noah-isme/sma-widget-api/pkg/config"
	"github.com/noah-isme/sma-widget-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-widget-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-widget-api/pkg/middleware/requestid"
)

type routerDeps struct {
	metrics  *service.MetricsService
	db       handler.Pinger
	auth     *service.AuthService
	snapshot *service.SnapshotService
	schedule *service.ScheduleService
	widgets  *service.WidgetService
	planner  *service.UpdatePlanner
	refresh  *service.RefreshService
	registry *service.WidgetRegistryService
	exports  *service.ExportService
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.auth)
	preferenceHandler := handler.NewPreferenceHandler(deps.snapshot)
	scheduleHandler := handler.NewScheduleHandler(deps.schedule)
	widgetHandler := handler.NewWidgetHandler(deps.widgets, deps.planner, deps.refresh, deps.registry)
	requireDevice := internalmiddleware.JWT(deps.auth)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/pair", authHandler.Pair)

	prefs := api.Group("/preferences")
	prefs.GET("/debug-clock", preferenceHandler.GetDebugClock)
	prefs.Use(requireDevice)
	prefs.PUT("/timetable", preferenceHandler.SaveTimetable)
	prefs.PUT("/exams", preferenceHandler.SaveExams)
	prefs.PUT("/debug-clock", preferenceHandler.SetDebugClock)
	prefs.DELETE("/debug-clock", preferenceHandler.ClearDebugClock)

	api.GET("/schedule/today", scheduleHandler.Today)
	api.GET("/schedule/tomorrow", scheduleHandler.Tomorrow)
	api.GET("/exams/upcoming", scheduleHandler.UpcomingExams)
	if deps.exports != nil {
		exportHandler := handler.NewExportHandler(deps.exports)
		api.GET("/exams/export", exportHandler.Exams)
	}

	widgets := api.Group("/widgets")
	widgets.GET("/updates", widgetHandler.Updates)
	widgets.POST("/broadcast", requireDevice, widgetHandler.Broadcast)
	widgets.GET("/instances", requireDevice, widgetHandler.ListInstances)
	widgets.POST("/instances", requireDevice, widgetHandler.RegisterInstance)
	widgets.DELETE("/instances/:id", requireDevice, widgetHandler.DeleteInstance)
	widgets.GET("/:kind", widgetHandler.Render)

	return r
}
