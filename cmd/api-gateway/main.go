package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gearguard/gearguard-api/api/swagger"
	"github.com/gearguard/gearguard-api/internal/handler"
	"github.com/gearguard/gearguard-api/internal/middleware"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/repository"
	"github.com/gearguard/gearguard-api/internal/service"
	"github.com/gearguard/gearguard-api/pkg/cache"
	"github.com/gearguard/gearguard-api/pkg/config"
	"github.com/gearguard/gearguard-api/pkg/database"
	"github.com/gearguard/gearguard-api/pkg/logger"
	corsmiddleware "github.com/gearguard/gearguard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gearguard/gearguard-api/pkg/middleware/requestid"
)

// @title GearGuard API
// @version 1.0.0
// @description Maintenance management backend: equipment registry, team
// @description scoping, and the request workflow engine.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsService := service.NewMetricsService()
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "gearguard-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)
	teamService := service.NewTeamService(teamRepo, userRepo, validate, logr)
	equipmentService := service.NewEquipmentService(equipmentRepo, validate, logr)
	requestService := service.NewRequestService(requestRepo, equipmentRepo, logr,
		service.WithRequestMetrics(metricsService))
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled && redisClient != nil)
	dashboardService := service.NewDashboardService(dashboardRepo, cacheService, cfg.Dashboard.CacheTTL, logr)
	exportService := service.NewExportService(requestRepo, equipmentRepo, service.ExportConfig{
		MaxRows:  cfg.Reports.MaxRows,
		Timezone: cfg.Reports.Timezone,
	}, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	teamHandler := handler.NewTeamHandler(teamService)
	equipmentHandler := handler.NewEquipmentHandler(equipmentService)
	requestHandler := handler.NewRequestHandler(requestService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	reportHandler := handler.NewReportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authService))
	{
		users := secured.Group("/users")
		{
			users.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), userHandler.List)
			users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleManager), middleware.SelfAccess), userHandler.Get)
			users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
			users.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
			users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
		}

		teams := secured.Group("/teams")
		{
			teams.GET("", teamHandler.List)
			teams.GET("/:id", teamHandler.Get)
			teams.GET("/:id/members", teamHandler.Members)
			teams.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), teamHandler.Create)
			teams.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), teamHandler.Update)
			teams.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), teamHandler.Delete)
			teams.POST("/:id/members", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), teamHandler.AddMember)
			teams.DELETE("/:id/members/:userId", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), teamHandler.RemoveMember)
		}

		equipment := secured.Group("/equipment")
		{
			equipment.GET("", equipmentHandler.List)
			equipment.GET("/:id", equipmentHandler.Get)
			equipment.GET("/:id/scrap-logs", equipmentHandler.ScrapLogs)
			equipment.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), equipmentHandler.Create)
			equipment.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), equipmentHandler.Update)
			equipment.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), equipmentHandler.Delete)
		}

		requests := secured.Group("/requests")
		{
			requests.GET("", requestHandler.List)
			requests.GET("/kanban", requestHandler.Kanban)
			requests.GET("/calendar", requestHandler.Calendar)
			requests.GET("/:id", requestHandler.Get)
			requests.GET("/:id/history", requestHandler.History)
			requests.POST("", requestHandler.Create)
			requests.PATCH("/:id", requestHandler.Update)
			requests.PATCH("/:id/status", requestHandler.UpdateStage)
			requests.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), requestHandler.Delete)
		}

		if cfg.Dashboard.Enabled {
			dashboard := secured.Group("/dashboard")
			{
				dashboard.GET("/kpis", dashboardHandler.KPIs)
				dashboard.GET("/summary", dashboardHandler.Summary)
				dashboard.GET("/activity", dashboardHandler.Activity)
			}
		}

		if cfg.Reports.Enabled {
			reports := secured.Group("/reports")
			{
				reports.GET("/requests", reportHandler.Requests)
				reports.GET("/equipment", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), reportHandler.Equipment)
			}
		}

		secured.GET("/system/metrics", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
