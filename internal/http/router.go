package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/palmyard/backend/internal/config"
	"github.com/palmyard/backend/internal/http/handlers"
	"github.com/palmyard/backend/internal/http/middleware"
	"github.com/palmyard/backend/internal/metrics"
	"github.com/palmyard/backend/internal/service"

	_ "github.com/palmyard/backend/docs"
)

// Deps are the collaborators the router hands to the handlers.
type Deps struct {
	DB            handlers.Pinger
	Announcements handlers.AnnouncementStore
	Imports       *service.ImportService
	Dashboard     *service.DashboardService
	Insights      *service.InsightService
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" || cfg.CORSAllowed == "" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.CORSAllowed, ",")
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		DB:            deps.DB,
		Imports:       deps.Imports,
		Dashboard:     deps.Dashboard,
		Insights:      deps.Insights,
		Announcements: deps.Announcements,
		Validator:     validator.New(),
		Logger:        logger,

		MaxUploadBytes: cfg.MaxUploadSizeMB << 20,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/tickets", h.TicketsList)
		api.GET("/dashboard", h.DashboardView)
		api.GET("/kpi", h.KPI)
		api.GET("/quality", h.Quality)
		api.GET("/leaderboard", h.Leaderboard)
		api.GET("/locations", h.LocationsList)
		api.GET("/locations/:name", h.LocationDetails)
		api.GET("/forecast", h.Forecast)
		api.GET("/export", h.Export)
		api.GET("/runs/latest", h.RunsLatest)
		api.GET("/announcements", h.AnnouncementsList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/insights", h.GenerateInsight)
		admin.POST("/announcements", h.AnnouncementCreate)
		admin.DELETE("/announcements/:id", h.AnnouncementDelete)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
