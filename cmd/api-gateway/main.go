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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Timetable views, conflict checking and automated generation
// @BasePath /
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var locker cache.Locker = cache.NewLocalLocker(cfg.Scheduler.LockWait)
	if redisClient != nil {
		locker = cache.NewRedisLocker(redisClient, "lock:", cfg.Scheduler.LockTTL, cfg.Scheduler.LockWait)
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, logr, service.CacheOptions{
		Namespace:  "timetable",
		DefaultTTL: cfg.Catalog.CacheTTL,
		Enabled:    redisClient != nil,
	})
	catalogSvc := service.NewCatalogService(slotRepo, classroomRepo, subjectRepo, classRepo, facultyRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	timetableSvc := service.NewTimetableService(timetableRepo, classRepo, subjectRepo, classroomRepo, slotRepo, metrics, validate, logr, service.TimetableServiceConfig{
		DefaultAcademicYear: cfg.Scheduler.DefaultAcademicYear,
		LectureRoomFallback: cfg.Scheduler.LectureRoomFallback,
	})
	exportSvc := service.NewExportService(timetableSvc, logr, nil, nil)

	loader := service.NewCatalogLoader(classRepo, subjectRepo, facultyRepo, slotRepo, classroomRepo, timetableRepo)
	generatorSvc := service.NewTimetableGeneratorService(loader, timetableRepo, timetableRepo, locker, metrics, validate, logr, service.TimetableGeneratorConfig{
		Enabled:             cfg.Scheduler.Enabled,
		Policy:              models.SlotPolicy(cfg.Scheduler.SlotPolicy),
		LectureRoomFallback: cfg.Scheduler.LectureRoomFallback,
		DefaultAcademicYear: cfg.Scheduler.DefaultAcademicYear,
		PreviewTTL:          cfg.Scheduler.PreviewTTL,
		RunTimeout:          cfg.Scheduler.RunTimeout,
	})

	queue := jobs.NewQueue("timetable-generation", generatorSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnGiveUp:   generatorSvc.OnJobGiveUp,
	})
	queue.Start(ctx)
	defer queue.Stop()
	generatorSvc.AttachQueue(queue)

	probes := map[string]handler.ReadinessProbe{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metrics.Handler(), probes)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), middleware.JWT(tokenSvc), handler.Handlers{
		Catalog:   handler.NewCatalogHandler(catalogSvc),
		Timetable: handler.NewTimetableHandler(timetableSvc, exportSvc),
		Generator: handler.NewTimetableGeneratorHandler(generatorSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "slot_policy", cfg.Scheduler.SlotPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
