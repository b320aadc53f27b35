package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/middleware"
	"github.com/attendly/attendly-api/internal/service"
	"github.com/attendly/attendly-api/pkg/config"
	"github.com/attendly/attendly-api/pkg/logger"
	corsmiddleware "github.com/attendly/attendly-api/pkg/middleware/cors"
	reqidmiddleware "github.com/attendly/attendly-api/pkg/middleware/requestid"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth      *service.AuthService
	Subjects  *service.SubjectService
	Timetable *service.TimetableService
	Schedule  *service.ScheduleService
	Classes   *service.ClassService
	Stats     *service.StatsService
	Dashboard *service.DashboardService
	Settings  *service.SettingsService
	Export    *service.ExportService
	Metrics   *service.MetricsService
}

// NewRouter assembles the gin engine with all middleware and routes.
func NewRouter(cfg *config.Config, logr *zap.Logger, services Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(services.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authHandler := NewAuthHandler(services.Auth)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(services.Auth))
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)

	subjectHandler := NewSubjectHandler(services.Subjects)
	protected.GET("/subjects", subjectHandler.List)
	protected.POST("/subjects", subjectHandler.Create)
	protected.GET("/subjects/:id", subjectHandler.Get)
	protected.PUT("/subjects/:id", subjectHandler.Update)
	protected.DELETE("/subjects/:id", subjectHandler.Delete)

	timetableHandler := NewTimetableHandler(services.Timetable)
	protected.GET("/timetables", timetableHandler.List)
	protected.POST("/timetables", timetableHandler.Create)
	protected.GET("/timetables/:id", timetableHandler.Get)
	protected.DELETE("/timetables/:id", timetableHandler.Delete)
	protected.POST("/timetables/:id/activate", timetableHandler.Activate)
	protected.POST("/timetables/:id/slots", timetableHandler.AddSlot)
	protected.DELETE("/timetables/:id/slots/:slotId", timetableHandler.RemoveSlot)

	scheduleHandler := NewScheduleHandler(services.Schedule)
	protected.POST("/schedule/generate", scheduleHandler.Generate)
	protected.GET("/classes", scheduleHandler.ListClasses)

	classHandler := NewClassHandler(services.Classes)
	protected.PUT("/classes/:id/status", classHandler.UpdateStatus)
	protected.PUT("/classes/:id/attendance", classHandler.MarkAttendance)
	protected.DELETE("/classes/:id/attendance", classHandler.ResetAttendance)
	protected.POST("/classes/:id/reset", classHandler.Reset)
	protected.POST("/classes/today/holiday", classHandler.MarkTodayAsHoliday)

	statsHandler := NewStatsHandler(services.Stats)
	protected.GET("/stats/attendance", statsHandler.Attendance)

	if cfg.Dashboard.Enabled {
		dashboardHandler := NewDashboardHandler(services.Dashboard)
		protected.GET("/dashboard", dashboardHandler.Summary)
	}

	settingsHandler := NewSettingsHandler(services.Settings)
	protected.GET("/settings/notifications", settingsHandler.GetNotifications)
	protected.PUT("/settings/notifications", settingsHandler.UpdateNotifications)
	protected.GET("/settings/profile", settingsHandler.GetProfile)
	protected.PUT("/settings/profile", settingsHandler.UpdateProfile)

	if cfg.Exports.Enabled {
		exportHandler := NewExportHandler(services.Export)
		protected.GET("/export/attendance", exportHandler.Attendance)
	}

	return r
}
