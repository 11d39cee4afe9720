package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edutrack-api/internal/config"
	"github.com/noah-isme/edutrack-api/internal/handler"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	SchoolHandler       *handler.SchoolHandler
	StudentHandler      *handler.StudentHandler
	SubjectHandler      *handler.SubjectHandler
	ClassHandler        *handler.ClassHandler
	ExamHandler         *handler.ExamHandler
	CalendarHandler     *handler.CalendarHandler
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	ResultHandler       *handler.ResultHandler
	NotificationHandler *handler.NotificationHandler
	DashboardHandler    *handler.DashboardHandler
	ReportHandler       *handler.ReportHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	superOnly := middleware.RequireRole(models.RoleSuperAdmin)
	staffOnly := middleware.RequireRole(models.RoleSuperAdmin, models.RoleSchoolAdmin, models.RolePrincipal)
	staffOrTeacher := middleware.RequireRole(models.RoleSuperAdmin, models.RoleSchoolAdmin, models.RolePrincipal, models.RoleTeacher)
	teacherOnly := middleware.RequireRole(models.RoleTeacher)
	parentOnly := middleware.RequireRole(models.RoleParent)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.SchoolHandler != nil {
		deps.SchoolHandler.Register(api.Group("/schools", jwtMiddleware), staffOnly, superOnly)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware, staffOnly))
		deps.UserHandler.RegisterApprovals(api.Group("/approvals", jwtMiddleware, staffOnly))
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware), staffOnly)
	}

	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(api.Group("/subjects", jwtMiddleware), staffOnly)
	}

	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(api.Group("/classes", jwtMiddleware), staffOnly)
		deps.ClassHandler.RegisterLessons(api.Group("/lessons", jwtMiddleware), staffOnly)
	}

	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(api.Group("/exams", jwtMiddleware), staffOnly)
	}

	if deps.CalendarHandler != nil {
		deps.CalendarHandler.RegisterTerms(api.Group("/terms", jwtMiddleware), staffOnly)
		deps.CalendarHandler.RegisterHolidays(api.Group("/holidays", jwtMiddleware), staffOnly)
		deps.CalendarHandler.RegisterEvents(api.Group("/events", jwtMiddleware), staffOrTeacher)
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(api.Group("/assignments", jwtMiddleware), teacherOnly)
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", jwtMiddleware), parentOnly, teacherOnly)
	}

	if deps.ResultHandler != nil {
		deps.ResultHandler.Register(api.Group("/results", jwtMiddleware), staffOrTeacher)
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
		deps.NotificationHandler.RegisterFanOut(api.Group("/notifications/broadcast", jwtMiddleware, staffOrTeacher))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", jwtMiddleware))
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", jwtMiddleware, staffOrTeacher))
	}
}
