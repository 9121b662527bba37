package routes

import (
	"time"

	"remitgate/internal/adapters/http/handlers"
	"remitgate/internal/adapters/http/middleware"
	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/config"
	"remitgate/internal/core/services"
	"remitgate/internal/pkg/jwt"
	"remitgate/internal/pkg/logs"
	"remitgate/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, auditor services.Auditor) {
	// Initialize repositories
	employeeRepo := repositories.NewEmployeeRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	// Initialize collaborators
	hasher := password.NewHasher(cfg.Hashing.Params, cfg.Hashing.Workers)
	tokens := jwt.NewManager(jwt.Config{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})

	// Initialize services
	authService := services.NewAuthService(
		employeeRepo,
		hasher,
		tokens,
		auditor,
		services.LockoutPolicy{Threshold: cfg.Lockout.Threshold, Duration: cfg.Lockout.Duration},
		logs.WithComponent("auth"),
	)
	transactionService := services.NewTransactionService(transactionRepo, auditor, logs.WithComponent("transactions"))
	statisticsService := services.NewStatisticsService(transactionRepo, logs.WithComponent("statistics"))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cfg)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	transactionHandler := handlers.NewTransactionHandler(transactionService, statisticsService)
	employeeHandler := handlers.NewEmployeeHandler(authService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group, every request runs under a deadline
	apiV1 := app.Group("/api/v1", middleware.RequestTimeout(cfg.RequestTimeout))
	requireAuth := middleware.AuthMiddleware(authService, auditor)

	// Auth routes
	authRoutes := apiV1.Group("/auth", middleware.NoCacheHeaders())
	setupAuthRoutes(authRoutes, authHandler, requireAuth)

	// Transaction routes (authenticated employees)
	transactionRoutes := apiV1.Group("/transactions", requireAuth)
	setupTransactionRoutes(transactionRoutes, transactionHandler)

	// Employee administration (Supervisor/Admin only)
	employeeRoutes := apiV1.Group("/employees", requireAuth, middleware.SupervisorOrAdmin(auditor))
	employeeRoutes.Post("/:id/unlock", employeeHandler.Unlock)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, requireAuth fiber.Handler) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)

	// Protected routes
	router.Post("/logout", requireAuth, handler.Logout)
	router.Get("/me", requireAuth, handler.Me)
}

// setupTransactionRoutes configures transaction routes.
// Static paths are registered before /:id.
func setupTransactionRoutes(router fiber.Router, handler *handlers.TransactionHandler) {
	router.Post("/submit", handler.Submit)
	router.Get("/statistics", middleware.PrivateCacheHeaders(5*time.Second), handler.Statistics)
	router.Post("/:id/verify", handler.Verify)
	router.Get("/:id", handler.Get)
}
