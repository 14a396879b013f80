package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crediblehealth/clinic-console/internal/api/handler"
	"github.com/crediblehealth/clinic-console/internal/api/middleware"
	"github.com/crediblehealth/clinic-console/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// Services groups the application services the router exposes.
type Services struct {
	Auth        ports.AuthService
	Approval    ports.ApprovalService
	Review      ports.ReviewService
	Appointment ports.AppointmentService
}

// publicPaths lists the route prefixes that skip authentication. The bare
// "/" entry matches only the root itself.
var publicPaths = []string{"/", "/auth", "/health", "/metrics", "/swagger"}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svcs Services, db *mongo.Database, rdb *redis.Client, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("clinic"))
	e.Use(middleware.Guard(jwtSecret, publicPaths...))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svcs.Auth)
	userHandler := handler.NewUserHandler(svcs.Approval)
	diagnosisHandler := handler.NewDiagnosisHandler(svcs.Review)
	appointmentHandler := handler.NewAppointmentHandler(svcs.Appointment)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Staff approval workflow (admin only) ---
	users := e.Group("/api/users", middleware.RBAC("admin"))
	users.GET("", userHandler.List)
	users.PUT("/:id/status", userHandler.UpdateStatus)
	users.POST("/:id/interview", userHandler.ScheduleInterview)

	// --- Diagnosis form review ---
	forms := e.Group("/api/forms", middleware.RBAC("admin", "doctor"))
	forms.GET("", diagnosisHandler.List)
	forms.GET("/:id", diagnosisHandler.Get)
	forms.PUT("/:id/assessment", diagnosisHandler.SubmitAssessment)

	// --- Appointments ---
	appointments := e.Group("/api/appointments", middleware.RBAC("admin", "doctor", "marketer"))
	appointments.GET("", appointmentHandler.List)
	appointments.GET("/today", appointmentHandler.ListToday)
	appointments.POST("", appointmentHandler.Create)

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes ---
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
