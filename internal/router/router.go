package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/handler"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/requestid"
)

// Options controls the route surface.
type Options struct {
	APIPrefix      string
	EnforceAuth    bool
	Docs           bool
	AllowedOrigins []string
}

// Handlers bundles every HTTP handler the router mounts. Exports may be nil
// when the export pipeline is disabled.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Students *handler.StudentHandler
	Courses  *handler.CourseHandler
	Portal   *handler.PortalHandler
	Requests *handler.RequestHandler
	Exports  *handler.ExportHandler
	Metrics  *handler.MetricsHandler
}

// New builds the gin engine. With EnforceAuth the CRUD and portal routes
// require a bearer token; admins reach everything and students reach their
// own record through SELF.
func New(opts Options, h Handlers, auth *service.AuthService, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.Docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := middleware.RBAC(string(models.RoleAdmin), middleware.Self)
	guard := func(...gin.HandlerFunc) []gin.HandlerFunc { return nil }
	if opts.EnforceAuth {
		guard = func(authorize ...gin.HandlerFunc) []gin.HandlerFunc {
			return append([]gin.HandlerFunc{middleware.JWT(auth)}, authorize...)
		}
	}
	with := func(guards []gin.HandlerFunc, final gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guards...), final)
	}

	api := r.Group(opts.APIPrefix)
	api.Use(middleware.OptionalJWT(auth))

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)

	users := api.Group("/users")
	users.GET("", with(guard(admin), h.Users.List)...)
	users.POST("", with(guard(admin), h.Users.Create)...)
	users.GET("/:id", with(guard(admin), h.Users.Get)...)
	users.PUT("/:id", with(guard(admin), h.Users.Update)...)
	users.DELETE("/:id", with(guard(admin), h.Users.Delete)...)

	students := api.Group("/students")
	students.GET("", with(guard(admin), h.Students.List)...)
	students.POST("", with(guard(admin), h.Students.Create)...)
	students.GET("/stats", with(guard(admin), h.Students.Stats)...)
	students.GET("/:id", with(guard(adminOrSelf), h.Students.Get)...)
	students.PUT("/:id", with(guard(admin), h.Students.Update)...)
	students.DELETE("/:id", with(guard(admin), h.Students.Delete)...)

	courses := api.Group("/courses")
	courses.GET("", with(guard(), h.Courses.List)...)
	courses.GET("/:id", with(guard(), h.Courses.Get)...)
	courses.POST("", with(guard(admin), h.Courses.Create)...)
	courses.PUT("/:id", with(guard(admin), h.Courses.Update)...)
	courses.DELETE("/:id", with(guard(admin), h.Courses.Delete)...)

	portal := api.Group("/portal")
	portal.Use(guard()...)
	portal.GET("/profile", h.Portal.Profile)
	portal.GET("/academic-history", h.Portal.AcademicHistory)
	portal.GET("/enrollment", h.Portal.Enrollment)
	portal.GET("/registration/courses", h.Portal.RegistrationCourses)
	portal.POST("/registration/schedule", h.Portal.BuildSchedule)
	portal.GET("/payments", h.Portal.Payments)
	portal.POST("/payments", h.Portal.SubmitPayment)
	portal.GET("/clearance", h.Portal.Clearance)
	portal.GET("/dormitory", h.Portal.Dormitory)
	portal.GET("/events", h.Portal.Events)
	portal.GET("/curriculum", h.Portal.Curriculum)
	portal.GET("/course-audit", h.Portal.CourseAudit)

	requests := portal.Group("/requests")
	requests.GET("", h.Requests.List)
	requests.GET("/add-drop/options", h.Requests.AddDropOptions)
	requests.POST("/add-drop", h.Requests.SubmitAddDrop)
	requests.GET("/withdrawal/term", h.Requests.WithdrawalTerm)
	requests.POST("/withdrawal", h.Requests.SubmitWithdrawal)
	requests.POST("/complaint", h.Requests.SubmitComplaint)
	requests.GET("/course-exception/requirements", h.Requests.DegreeRequirements)
	requests.POST("/course-exception", h.Requests.SubmitCourseException)

	api.GET("/admin/hub", with(guard(admin), h.Portal.AdminHub)...)
	api.GET("/metrics/summary", with(guard(admin), h.Metrics.Snapshot)...)

	exports := h.Exports
	if exports == nil {
		exports = handler.NewExportHandler(nil)
	}
	api.POST("/exports", with(guard(admin), exports.Create)...)
	api.GET("/exports/:id", with(guard(admin), exports.Status)...)
	api.GET("/export/:token", exports.Download)

	return r
}
