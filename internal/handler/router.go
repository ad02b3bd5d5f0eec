package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/middleware"
	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/repository"
	"github.com/soe-platform/workload-api/internal/service"
	"github.com/soe-platform/workload-api/pkg/config"
	"github.com/soe-platform/workload-api/pkg/logger"
	corsmiddleware "github.com/soe-platform/workload-api/pkg/middleware/cors"
	reqidmiddleware "github.com/soe-platform/workload-api/pkg/middleware/requestid"
)

// RouterDeps bundles the handlers and cross-cutting dependencies the
// HTTP engine is assembled from.
type RouterDeps struct {
	Cfg    *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	AuthService    *service.AuthService
	MetricsService *service.MetricsService
	Users          *repository.UserRepository

	Auth          *AuthHandler
	User          *UserHandler
	Professor     *ProfessorHandler
	Subject       *SubjectHandler
	Course        *CourseHandler
	Coordination  *CoordinationHandler
	Term          *TermHandler
	Rate          *RateHandler
	Workload      *WorkloadHandler
	Billing       *BillingHandler
	Recycle       *RecycleHandler
	Export        *ExportHandler
	Metrics       *MetricsHandler
}

// NewRouter assembles the gin engine with middleware and the full route table.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.Logger))
	r.Use(corsmiddleware.New(d.Cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.MetricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", d.readiness())
	r.GET("/metrics", d.Metrics.Prometheus)
	if d.Cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(d.Users, action, resource)
	}

	api := r.Group(d.Cfg.APIPrefix)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	// Download authenticates through the signed token in the URL.
	api.GET("/exports/:id/download", d.Export.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.AuthService))

	auth := secured.Group("/auth")
	{
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/me", d.Auth.Me)
		auth.POST("/change-password", d.Auth.ChangePassword)
	}

	users := secured.Group("/users")
	{
		users.GET("", admin, d.User.List)
		users.POST("", admin, d.User.Create)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), d.User.Get)
		users.PUT("/:id", admin, d.User.Update)
		users.DELETE("/:id", admin, d.User.Delete)
	}

	coordinations := secured.Group("/coordinations")
	{
		coordinations.GET("", d.Coordination.List)
		coordinations.GET("/:id", d.Coordination.Get)
		coordinations.POST("", writers, audit(models.AuditActionCreate, "coordinations"), d.Coordination.Create)
		coordinations.PUT("/:id", writers, audit(models.AuditActionUpdate, "coordinations"), d.Coordination.Update)
		coordinations.DELETE("/:id", writers, audit(models.AuditActionDelete, "coordinations"), d.Coordination.Delete)
	}

	courses := secured.Group("/courses")
	{
		courses.GET("", d.Course.List)
		courses.GET("/:id", d.Course.Get)
		courses.POST("", writers, audit(models.AuditActionCreate, "courses"), d.Course.Create)
		courses.PUT("/:id", writers, audit(models.AuditActionUpdate, "courses"), d.Course.Update)
		courses.DELETE("/:id", writers, audit(models.AuditActionDelete, "courses"), d.Course.Delete)
	}

	subjects := secured.Group("/subjects")
	{
		subjects.GET("", d.Subject.List)
		subjects.GET("/:id", d.Subject.Get)
		subjects.POST("", writers, audit(models.AuditActionCreate, "subjects"), d.Subject.Create)
		subjects.PUT("/:id", writers, audit(models.AuditActionUpdate, "subjects"), d.Subject.Update)
		subjects.DELETE("/:id", writers, audit(models.AuditActionDelete, "subjects"), d.Subject.Delete)
	}

	professors := secured.Group("/professors")
	{
		professors.GET("", d.Professor.List)
		professors.GET("/:id", d.Professor.Get)
		professors.POST("", writers, audit(models.AuditActionCreate, "professors"), d.Professor.Create)
		professors.PUT("/:id", writers, audit(models.AuditActionUpdate, "professors"), d.Professor.Update)
		professors.DELETE("/:id", writers, audit(models.AuditActionDelete, "professors"), d.Professor.Delete)
	}

	terms := secured.Group("/terms")
	{
		terms.GET("", d.Term.List)
		terms.GET("/active", d.Term.GetActive)
		terms.GET("/:id", d.Term.Get)
		terms.POST("", writers, audit(models.AuditActionCreate, "terms"), d.Term.Create)
		terms.PUT("/:id", writers, audit(models.AuditActionUpdate, "terms"), d.Term.Update)
		terms.POST("/:id/activate", writers, audit(models.AuditActionUpdate, "terms"), d.Term.Activate)
		terms.DELETE("/:id", writers, audit(models.AuditActionDelete, "terms"), d.Term.Delete)
		terms.GET("/:id/holidays", d.Term.ListHolidays)
		terms.PUT("/:id/holidays", writers, audit(models.AuditActionUpdate, "term_holidays"), d.Term.ReplaceHolidays)
	}

	rates := secured.Group("/payment-rates")
	rates.Use(admin)
	{
		rates.GET("", d.Rate.List)
		rates.GET("/:id", d.Rate.Get)
		rates.POST("", audit(models.AuditActionCreate, "payment_rates"), d.Rate.Create)
		rates.PUT("/:id", audit(models.AuditActionUpdate, "payment_rates"), d.Rate.Update)
		rates.DELETE("/:id", audit(models.AuditActionDelete, "payment_rates"), d.Rate.Delete)
	}

	loadFiles := secured.Group("/load-files")
	{
		loadFiles.GET("", d.Workload.List)
		loadFiles.GET("/:id", d.Workload.Get)
		loadFiles.GET("/:id/records", d.Workload.ListRecords)
		loadFiles.GET("/:id/sections", d.Workload.ListSections)
		loadFiles.POST("", writers, d.Workload.Upload)
		loadFiles.DELETE("/:id", writers, d.Workload.Delete)
	}

	billing := secured.Group("/billing/load-files/:id")
	{
		billing.GET("/schedule-blocks", d.Billing.ScheduleBlocks)
		billing.GET("/payment-summary", d.Billing.PaymentSummary)
		billing.GET("/monthly-budget", d.Billing.MonthlyBudget)
		billing.GET("/report", d.Billing.Report)
	}

	recycle := secured.Group("/recycle-bin")
	recycle.Use(admin)
	{
		recycle.GET("", d.Recycle.List)
		recycle.POST("/:resource/:id/restore", d.Recycle.Restore)
		recycle.DELETE("/:resource/:id", d.Recycle.Purge)
	}

	exports := secured.Group("/exports")
	{
		exports.POST("", d.Export.Create)
		exports.GET("/:id", d.Export.Status)
	}

	secured.GET("/metrics/runtime", admin, d.Metrics.Runtime)

	return r
}

// readiness pings the backing stores so load balancers stop routing
// to an instance that lost its database or cache.
func (d RouterDeps) readiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true

		if d.DB != nil {
			pingStart := time.Now()
			err := d.DB.PingContext(ctx)
			d.MetricsService.ObserveDBQuery("ping", time.Since(pingStart))
			if err != nil {
				checks["database"] = "down"
				healthy = false
			} else {
				checks["database"] = "up"
			}
		}
		if d.Redis != nil {
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				checks["redis"] = "down"
				healthy = false
			} else {
				checks["redis"] = "up"
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
	}
}
