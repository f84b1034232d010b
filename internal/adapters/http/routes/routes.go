package routes

import (
	"medask-forum/internal/adapters/http/handlers"
	"medask-forum/internal/adapters/http/middleware"
	"medask-forum/internal/adapters/persistence/repositories"
	"medask-forum/internal/config"
	"medask-forum/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	topicRepo := repositories.NewTopicRepository(db)
	replyRepo := repositories.NewReplyRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize services
	notifyService := services.NewNotificationService()
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	creditService := services.NewCreditService(uow, paymentRepo, userRepo, notifyService)
	topicService := services.NewTopicService(uow, topicRepo, categoryRepo, userRepo, paymentRepo, auditRepo, notifyService)
	replyService := services.NewReplyService(uow, replyRepo, topicRepo, userRepo, notifyService)
	dashboardService := services.NewDashboardService(db)
	cronService := services.NewCronService(creditService, topicService, refreshTokenRepo, notifyService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryRepo)
	topicHandler := handlers.NewTopicHandler(topicService)
	replyHandler := handlers.NewReplyHandler(replyService)
	paymentHandler := handlers.NewPaymentHandler(creditService, cfg)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler, categoryHandler,
		topicHandler, replyHandler, paymentHandler, dashboardHandler, cfg)

	return cronService
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	categoryHandler *handlers.CategoryHandler,
	topicHandler *handlers.TopicHandler,
	replyHandler *handlers.ReplyHandler,
	paymentHandler *handlers.PaymentHandler,
	dashboardHandler *handlers.DashboardHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Category master data (public, cacheable)
	router.Get("/categories", middleware.MasterDataCache(), categoryHandler.List)

	// Payment provider webhook (public, shared-secret protected)
	router.Post("/payments/webhook", paymentHandler.Webhook)

	// Payment routes (authenticated)
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Use(middleware.AuthMiddleware(cfg))
	paymentRoutes.Get("/my-credits", middleware.NoCacheHeaders(), paymentHandler.MyCredits)

	// Topic routes (authenticated)
	topicRoutes := router.Group("/topics")
	topicRoutes.Use(middleware.AuthMiddleware(cfg))
	setupTopicRoutes(topicRoutes, topicHandler, replyHandler)

	// Reply moderation (moderators)
	replyRoutes := router.Group("/replies")
	replyRoutes.Use(middleware.AuthMiddleware(cfg))
	replyRoutes.Use(middleware.ExpertOrAdmin())
	replyRoutes.Delete("/:id", replyHandler.Delete)

	// Profile routes (authenticated users)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Get("/profile", userHandler.GetProfile)
	userRoutes.Put("/profile", userHandler.UpdateProfile)
	userRoutes.Post("/change-password", middleware.StrictRateLimiter(), userHandler.ChangePassword)
	userRoutes.Get("/experts", userHandler.ListExperts)

	// Dashboard routes
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)

	// Admin routes
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, userHandler, paymentHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupTopicRoutes configures topic and reply routes
func setupTopicRoutes(router fiber.Router, topicHandler *handlers.TopicHandler, replyHandler *handlers.ReplyHandler) {
	// Eligibility checks are advisory and must never be cached
	router.Get("/eligibility", middleware.NoCacheHeaders(), topicHandler.CheckEligibility)

	// Topic creation debits credit, so the strict limiter applies
	router.Post("/", middleware.StrictRateLimiter(), topicHandler.Create)
	router.Get("/", topicHandler.List)
	router.Get("/mine", topicHandler.ListMine)
	router.Get("/:id", topicHandler.Get)
	router.Patch("/:id/status", topicHandler.Transition)
	router.Post("/:id/close", topicHandler.Close)

	// Replies
	router.Get("/:id/replies/eligibility", middleware.NoCacheHeaders(), replyHandler.CheckEligibility)
	router.Get("/:id/replies", replyHandler.List)
	router.Post("/:id/replies", replyHandler.Create)

	// Moderator routes
	moderatorRoutes := router.Group("")
	moderatorRoutes.Use(middleware.ExpertOrAdmin())
	moderatorRoutes.Post("/:id/assign", topicHandler.Assign)
	moderatorRoutes.Get("/:id/history", topicHandler.History)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	router.Get("/", handler.GetMyDashboard)
	router.Get("/user", handler.GetUserDashboard)

	router.Get("/expert", middleware.ExpertOrAdmin(), handler.GetExpertDashboard)
	router.Get("/admin", middleware.AdminOnly(), handler.GetAdminDashboard)
}

// setupAdminRoutes configures admin routes
func setupAdminRoutes(router fiber.Router, userHandler *handlers.UserHandler, paymentHandler *handlers.PaymentHandler) {
	// User management
	router.Get("/users", userHandler.ListUsers)
	router.Get("/users/:id", userHandler.GetUser)
	router.Put("/users/:id", userHandler.UpdateUser)
	router.Delete("/users/:id", userHandler.DeactivateUser)
	router.Get("/users/:id/credits", paymentHandler.ListUserRecords)

	// Credit management
	router.Post("/credits/grant", paymentHandler.Grant)
	router.Post("/credits/:id/refund", paymentHandler.Refund)
}
