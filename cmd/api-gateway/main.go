package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uni-adm-api/api/swagger"
	"github.com/noah-isme/uni-adm-api/internal/handler"
	"github.com/noah-isme/uni-adm-api/internal/middleware"
	"github.com/noah-isme/uni-adm-api/internal/models"
	"github.com/noah-isme/uni-adm-api/internal/repository"
	"github.com/noah-isme/uni-adm-api/internal/service"
	"github.com/noah-isme/uni-adm-api/pkg/cache"
	"github.com/noah-isme/uni-adm-api/pkg/config"
	"github.com/noah-isme/uni-adm-api/pkg/database"
	"github.com/noah-isme/uni-adm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-adm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-adm-api/pkg/middleware/requestid"
)

// @title University Administration API
// @version 0.1.0
// @description Academic period management and student deferment lifecycle
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The current-period cache is an optimisation; the pointer row is
		// always authoritative.
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	yearRepo := repository.NewAcademicYearRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	activationRepo := repository.NewActivationLogRepository(db)
	currentRepo := repository.NewCurrentPeriodRepository(db)
	standingRepo := repository.NewStandingRepository(db)
	defermentRepo := repository.NewDefermentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Deferment.CurrentPeriodCacheTTL)

	metricsSvc := service.NewMetricsService()

	dispatcher := service.NewNotificationDispatcher(notificationRepo, cfg.Notifications, logr)
	dispatcher.Start()
	defer dispatcher.Stop()

	propagator := service.NewPropagator(standingRepo, logr,
		service.NewAcademicRecordWriter(auditRepo),
		service.NewEnrollmentWriter(enrollmentRepo),
		service.NewFeeWriter(feeRepo),
		service.NewNotificationWriter(notificationRepo, dispatcher),
	)

	periodSvc := service.NewPeriodService(yearRepo, semesterRepo, activationRepo, currentRepo, cacheRepo, auditRepo, validate, logr)
	defermentSvc := service.NewDefermentService(defermentRepo, standingRepo, feeRepo, propagator, periodSvc, auditRepo, enrollmentRepo, feeRepo, notificationRepo, cfg.Deferment, validate, logr)
	authSvc := service.NewAuthService(operatorRepo, auditRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	auditSvc := service.NewAuditService(auditRepo)
	exportSvc := service.NewExportService(defermentRepo, standingRepo, "", logr)

	authHandler := handler.NewAuthHandler(authSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	defermentHandler := handler.NewDefermentHandler(defermentSvc, exportSvc)
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
		if err := db.PingContext(c.Request.Context()); err != nil {
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
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	superAdmins := middleware.RequireRoles(models.RoleSuperAdmin)

	authed.GET("/academic-years", periodHandler.ListYears)
	authed.GET("/academic-years/:id", periodHandler.GetYear)
	authed.POST("/academic-years", admins, periodHandler.CreateYear)
	authed.PUT("/academic-years/:id", admins, periodHandler.UpdateYear)
	authed.POST("/academic-years/:id/activate", admins, periodHandler.ActivateYear)
	authed.POST("/academic-years/undo-activation", admins, periodHandler.UndoActiveYear)
	authed.DELETE("/academic-years/:id", admins, periodHandler.DeleteYear)

	authed.GET("/semesters", periodHandler.ListSemesters)
	authed.GET("/semesters/:id", periodHandler.GetSemester)
	authed.POST("/semesters", admins, periodHandler.CreateSemester)
	authed.PUT("/semesters/:id", admins, periodHandler.UpdateSemester)
	authed.POST("/semesters/:id/activate", admins, periodHandler.ActivateSemester)
	authed.POST("/semesters/undo-activation", admins, periodHandler.UndoActiveSemester)
	authed.POST("/semesters/rollover", admins, periodHandler.RolloverSemester)
	authed.DELETE("/semesters/:id", admins, periodHandler.DeleteSemester)
	authed.GET("/periods/current", periodHandler.GetCurrentPeriod)

	authed.GET("/deferments", defermentHandler.List)
	authed.GET("/deferments/:id", defermentHandler.Get)
	authed.POST("/deferments", defermentHandler.Submit)
	authed.POST("/deferments/:id/approve", admins, defermentHandler.Approve)
	authed.POST("/deferments/:id/decline", admins, defermentHandler.Decline)
	authed.POST("/deferments/manual", admins, defermentHandler.ManualDefer)
	authed.GET("/deferments/:id/letter", defermentHandler.ApprovalLetter)
	authed.GET("/deferments/export/register", defermentHandler.ExportRegister)
	authed.DELETE("/deferments/maintenance/all", superAdmins, defermentHandler.PurgeAll)

	authed.GET("/students/:id/standing", defermentHandler.GetStanding)
	authed.POST("/students/:id/reactivate", admins, defermentHandler.Reactivate)
	authed.GET("/students/:id/return-period", defermentHandler.RecommendReturnPeriod)

	authed.GET("/audit-logs", admins, auditHandler.List)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
