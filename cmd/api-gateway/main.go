package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/docflow-hr/docflow-api/api/swagger"
	"github.com/docflow-hr/docflow-api/internal/handler"
	"github.com/docflow-hr/docflow-api/internal/middleware"
	"github.com/docflow-hr/docflow-api/internal/models"
	"github.com/docflow-hr/docflow-api/internal/repository"
	"github.com/docflow-hr/docflow-api/internal/service"
	"github.com/docflow-hr/docflow-api/pkg/cache"
	"github.com/docflow-hr/docflow-api/pkg/config"
	"github.com/docflow-hr/docflow-api/pkg/database"
	"github.com/docflow-hr/docflow-api/pkg/logger"
	corsmiddleware "github.com/docflow-hr/docflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/docflow-hr/docflow-api/pkg/middleware/requestid"
	"github.com/docflow-hr/docflow-api/pkg/storage"
)

// @title DocFlow HR API
// @version 1.0.0
// @description Multi-tenant HR document compliance backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	blobs, err := storage.NewLocalStorage(cfg.Storage.DocumentsDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	validate := validator.New()

	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	holdRepo := repository.NewLegalHoldRepository(db)
	policyRepo := repository.NewRetentionPolicyRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	tokenRepo := repository.NewTokenRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	auditSvc := service.NewAuditService(auditRepo, logr)
	auditSvc.SetMetrics(metricsSvc)

	authSvc := service.NewAuthService(userRepo, tokenRepo, auditSvc, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		MagicLinkTTL:       cfg.Auth.MagicLinkTTL,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
	}, validate, logr)

	employeeSvc := service.NewEmployeeService(employeeRepo, auditSvc, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, employeeRepo, blobs, signer, auditSvc, validate, logr)
	holdSvc := service.NewLegalHoldService(holdRepo, documentRepo, employeeRepo, auditSvc, validate, logr)
	retentionSvc := service.NewRetentionService(employeeRepo, documentRepo, policyRepo, holdSvc, auditSvc, validate, logr)
	retentionSvc.SetMetrics(metricsSvc)
	orgSvc := service.NewOrganizationService(orgRepo, userRepo, retentionSvc, auditSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	orgHandler := handler.NewOrganizationHandler(orgSvc)
	userHandler := handler.NewUserHandler(userSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc, cfg.Storage.MaxFileSizeByte)
	holdHandler := handler.NewLegalHoldHandler(holdSvc)
	retentionHandler := handler.NewRetentionHandler(retentionSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/organizations", orgHandler.Create)
	api.GET("/organizations/by-slug/:slug", orgHandler.GetBySlug)
	api.POST("/auth/magic-link", authHandler.RequestMagicLink)
	api.POST("/auth/verify", authHandler.VerifyMagicLink)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/documents/download", documentHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.GET("/organizations/current", orgHandler.Current)

		authed.GET("/employees", employeeHandler.List)
		authed.GET("/employees/:id", employeeHandler.Get)

		authed.GET("/documents", documentHandler.List)
		authed.GET("/documents/expiring", documentHandler.Expiring)
		authed.GET("/documents/:id", documentHandler.Get)
		authed.GET("/documents/:id/hold-status", holdHandler.DocumentStatus)
		authed.GET("/documents/:id/audit-trail", auditHandler.DocumentTrail)
		authed.POST("/documents/:id/download-url", documentHandler.DownloadURL)

		authed.GET("/legal-holds", holdHandler.List)

		authed.GET("/retention/calculate", retentionHandler.Calculate)
		authed.GET("/retention/policies", retentionHandler.ListPolicies)
		authed.GET("/retention/policies/:state/:category", retentionHandler.GetPolicy)
	}

	hr := authed.Group("")
	hr.Use(middleware.RequireRole(models.RoleHRAdmin, models.RoleHRManager))
	{
		hr.POST("/employees", employeeHandler.Create)
		hr.PUT("/employees/:id", employeeHandler.Update)
		hr.POST("/employees/:id/terminate", employeeHandler.Terminate)

		hr.POST("/documents", documentHandler.Create)
		hr.PUT("/documents/:id", documentHandler.Update)

		hr.POST("/retention/schedule-deletion", retentionHandler.ScheduleDeletion)
	}

	legal := authed.Group("")
	legal.Use(middleware.RequireRole(models.RoleHRAdmin, models.RoleLegal))
	{
		legal.POST("/legal-holds", holdHandler.Create)
		legal.POST("/legal-holds/:id/release", holdHandler.Release)
	}

	audit := authed.Group("")
	audit.Use(middleware.RequireRole(models.RoleHRAdmin, models.RoleLegal, models.RoleAuditor))
	{
		audit.GET("/audit-events", auditHandler.Query)
		audit.GET("/audit-events/export", auditHandler.Export)
	}

	admin := authed.Group("")
	admin.Use(middleware.RequireRole(models.RoleHRAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.POST("/users", userHandler.Invite)

		admin.POST("/retention/policies", retentionHandler.CreatePolicy)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
