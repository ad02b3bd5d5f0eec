package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/soe-platform/workload-api/api/swagger"
	"github.com/soe-platform/workload-api/internal/handler"
	"github.com/soe-platform/workload-api/internal/repository"
	"github.com/soe-platform/workload-api/internal/service"
	"github.com/soe-platform/workload-api/pkg/cache"
	"github.com/soe-platform/workload-api/pkg/config"
	"github.com/soe-platform/workload-api/pkg/database"
	"github.com/soe-platform/workload-api/pkg/export"
	"github.com/soe-platform/workload-api/pkg/jobs"
	"github.com/soe-platform/workload-api/pkg/logger"
	"github.com/soe-platform/workload-api/pkg/storage"
)

// @title SOE Workload API
// @version 1.0.0
// @description Academic workload, billing and export backend for the school of engineering
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(redisClient)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	coordinationRepo := repository.NewCoordinationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	termRepo := repository.NewTermRepository(db)
	rateRepo := repository.NewRateRepository(db)
	workloadRepo := repository.NewWorkloadRepository(db)
	recycleRepo := repository.NewRecycleRepository(db)
	exportRepo := repository.NewExportRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Billing.CacheTTL, logr, cfg.Billing.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, blacklistRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "workload-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	coordinationSvc := service.NewCoordinationService(coordinationRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	professorSvc := service.NewProfessorService(professorRepo, validate, logr)
	termSvc := service.NewTermService(termRepo, validate, logr)
	rateSvc := service.NewRateService(rateRepo, validate, logr)
	workloadSvc := service.NewWorkloadService(workloadRepo, termRepo, professorRepo, coordinationRepo, userRepo, cacheSvc, validate, logr)
	billingSvc := service.NewBillingService(workloadRepo, termRepo, rateRepo, cacheSvc, cfg.Billing, logr)
	recycleSvc := service.NewRecycleService(recycleRepo, coordinationRepo, courseRepo, subjectRepo, professorRepo, workloadRepo, cacheSvc, userRepo, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "dir", cfg.Exports.StorageDir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	generator := service.NewExportGenerator(billingSvc, exportStore, signer, service.GeneratorConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())
	exportWorker := service.NewExportWorker(exportRepo, generator, cfg.Exports.WorkerRetries, logr, metricsSvc)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportSvc := service.NewExportService(exportRepo, workloadRepo, exportQueue, generator, logr, service.ExportServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})

	router := handler.NewRouter(handler.RouterDeps{
		Cfg:    cfg,
		Logger: logr,
		DB:     db,
		Redis:  redisClient,

		AuthService:    authSvc,
		MetricsService: metricsSvc,
		Users:          userRepo,

		Auth:          handler.NewAuthHandler(authSvc),
		User:          handler.NewUserHandler(userSvc),
		Professor:     handler.NewProfessorHandler(professorSvc),
		Subject:       handler.NewSubjectHandler(subjectSvc),
		Course:        handler.NewCourseHandler(courseSvc),
		Coordination:  handler.NewCoordinationHandler(coordinationSvc),
		Term:          handler.NewTermHandler(termSvc),
		Rate:          handler.NewRateHandler(rateSvc),
		Workload:      handler.NewWorkloadHandler(workloadSvc, metricsSvc, cfg.Ingest),
		Billing:       handler.NewBillingHandler(billingSvc, metricsSvc),
		Recycle:       handler.NewRecycleHandler(recycleSvc),
		Export:        handler.NewExportHandler(exportSvc, metricsSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportQueue.Start(rootCtx)
	defer exportQueue.Stop()
	exportSvc.RecoverPendingJobs(rootCtx)
	exportSvc.StartCleanup(rootCtx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Sugar().Warnw("http shutdown error", "error", err)
		}
	}()

	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
