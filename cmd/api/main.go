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
	"go.uber.org/zap"

	_ "github.com/attendly/attendly-api/api/swagger"
	"github.com/attendly/attendly-api/internal/handler"
	"github.com/attendly/attendly-api/internal/repository"
	"github.com/attendly/attendly-api/internal/service"
	"github.com/attendly/attendly-api/pkg/cache"
	"github.com/attendly/attendly-api/pkg/config"
	"github.com/attendly/attendly-api/pkg/database"
	"github.com/attendly/attendly-api/pkg/logger"
)

// @title Attendly API
// @version 1.0.0
// @description Class schedule and attendance tracking API
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	classRepo := repository.NewClassRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "attendly-api",
	})
	subjectSvc := service.NewSubjectService(subjectRepo, timetableRepo, classRepo, db, cacheSvc, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, classRepo, db, cacheSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(timetableRepo, classRepo, db, cacheSvc, metrics, validate, logr)
	classSvc := service.NewClassService(classRepo, cacheSvc, validate, logr)
	statsSvc := service.NewStatsService(classRepo, logr)
	dashboardSvc := service.NewDashboardService(classRepo, settingsRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr)
	exportSvc := service.NewExportService(subjectRepo, classRepo, logr)

	var notifier service.Notifier
	if cfg.Notifications.WebhookURL != "" {
		notifier = service.NewWebhookNotifier(cfg.Notifications.WebhookURL)
	} else {
		notifier = service.NewLogNotifier(logr)
	}
	reminderSvc := service.NewReminderService(classRepo, notifier, metrics, service.ReminderConfig{
		ScanInterval: cfg.Notifications.ScanInterval,
		QueueWorkers: cfg.Notifications.QueueWorkers,
		QueueRetries: cfg.Notifications.QueueRetries,
	}, logr)

	router := handler.NewRouter(cfg, logr, handler.Services{
		Auth:      authSvc,
		Subjects:  subjectSvc,
		Timetable: timetableSvc,
		Schedule:  scheduleSvc,
		Classes:   classSvc,
		Stats:     statsSvc,
		Dashboard: dashboardSvc,
		Settings:  settingsSvc,
		Export:    exportSvc,
		Metrics:   metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reminderSvc.Start(ctx)
	defer reminderSvc.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
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
