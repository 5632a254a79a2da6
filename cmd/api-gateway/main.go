package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/drivecourse-api/api/swagger"
	"github.com/noah-isme/drivecourse-api/internal/handler"
	internalmiddleware "github.com/noah-isme/drivecourse-api/internal/middleware"
	"github.com/noah-isme/drivecourse-api/internal/models"
	"github.com/noah-isme/drivecourse-api/internal/repository"
	"github.com/noah-isme/drivecourse-api/internal/service"
	"github.com/noah-isme/drivecourse-api/pkg/cache"
	"github.com/noah-isme/drivecourse-api/pkg/config"
	"github.com/noah-isme/drivecourse-api/pkg/database"
	"github.com/noah-isme/drivecourse-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/drivecourse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/drivecourse-api/pkg/middleware/requestid"
	"github.com/noah-isme/drivecourse-api/pkg/registry"
)

// @title DriveCourse MEBBIS Transfer API
// @version 1.0.0
// @description Transfers driving course enrollments to the MEBBIS registry and keeps an audit trail of every run.
// @BasePath /api/v1
// @schemes http https
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, job view cache disabled", "error", err)
			redisClient = nil
		}
	}

	validate := validator.New()
	registry.RegisterValidations(validate)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	courseRepo := repository.NewCourseRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "drivecourse", logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Transfer.ViewCacheTTL, logr, redisClient != nil)
	adapter := newRegistryAdapter(cfg.Env, cfg.Registry, validate, logr)
	transferSvc := service.NewTransferService(courseRepo, transferRepo, adapter, auditRepo, metricsSvc, validate, logr)
	transferQuerySvc := service.NewTransferQueryService(transferRepo, cacheSvc, validate, logr)

	transferHandler := handler.NewTransferHandler(transferSvc, transferQuerySvc, cfg.Transfer.Enabled)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc))

	transfers := api.Group("/mebbis-transfer")
	readers := internalmiddleware.RBAC(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff)
	transfers.GET("", readers, transferHandler.List)
	transfers.GET("/:id", readers, transferHandler.Get)
	transfers.POST("/:courseId", internalmiddleware.RBAC(models.RoleSuperAdmin, models.RoleAdmin), transferHandler.Trigger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting",
		"addr", addr,
		"env", cfg.Env,
		"registry_adapter", cfg.Registry.Adapter,
		"transfer_enabled", cfg.Transfer.Enabled,
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newRegistryAdapter(env string, cfg config.RegistryConfig, validate *validator.Validate, logr *zap.Logger) registry.Adapter {
	if env == config.EnvProduction && cfg.Adapter != config.RegistryAdapterHTTP {
		logr.Sugar().Warnw("simulated registry adapter in production, live transfers will not reach MEBBIS", "adapter", cfg.Adapter)
	}
	switch cfg.Adapter {
	case config.RegistryAdapterHTTP:
		return registry.NewHTTPAdapter(registry.HTTPConfig{
			BaseURL:       cfg.BaseURL,
			APIKey:        cfg.APIKey,
			InstitutionID: cfg.InstitutionID,
			Timeout:       cfg.Timeout,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
		}, logr)
	case config.RegistryAdapterSimulated, "":
		return registry.NewSimulatedAdapter(validate, logr)
	default:
		logr.Sugar().Warnw("unknown registry adapter, using simulated", "adapter", cfg.Adapter)
		return registry.NewSimulatedAdapter(validate, logr)
	}
}
