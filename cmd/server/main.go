package main

import (
	"tender-service/internal/handler"
	"tender-service/internal/lifecycle"
	"tender-service/internal/middleware"
	"tender-service/internal/model"
	"tender-service/internal/notify"
	"tender-service/pkg/config"
	"tender-service/pkg/database"
	"tender-service/pkg/jwtutil"
	"tender-service/pkg/logger"
	"tender-service/pkg/metrics"
	"tender-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("tender-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting tender service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize HTTP metrics
	httpMetrics := metrics.NewHTTPMetrics(cfg.ServiceName)
	log.Info("HTTP metrics initialized")

	// Initialize database and run migrations
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(model.All()...); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host), zap.String("db_name", cfg.DB.DBName))

	// Wire the lifecycle service and its notification dispatcher
	dispatcher := notify.NewDispatcher(nil, cfg.Notify.Async)
	service := lifecycle.NewService(db, dispatcher, cfg)
	handler.Init(service)

	// Prime the status gauges
	go service.RefreshGauges()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(httpMetrics.Middleware())
	e.Use(logger.Middleware())

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.HealthCheck)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")

	// Public browse endpoints
	api.GET("/tenders", handler.ListTenders)
	api.GET("/tenders/:id", handler.GetTender)
	api.GET("/tenders/:id/documents", handler.ListTenderDocuments)
	api.GET("/tenders/:id/amendments", handler.ListAmendments)
	api.GET("/tenders/:id/clarifications", handler.ListClarifications)
	api.GET("/categories", handler.ListCategories)
	api.GET("/categories/:slug", handler.GetCategory)
	api.GET("/categories/:slug/tenders", handler.ListCategoryTenders)
	api.GET("/organizations", handler.ListOrganizations)
	api.GET("/organizations/:id", handler.GetOrganization)
	api.GET("/vendors", handler.ListVendors)
	api.GET("/vendors/:id", handler.GetVendor)
	api.GET("/stats", handler.GetStats)

	// API routes that require authentication
	authed := api.Group("", middleware.AuthMiddleware)
	authed.POST("/organizations", handler.RegisterOrganization)
	authed.POST("/vendors", handler.RegisterVendor)
	authed.GET("/bids/:id", handler.GetBid)
	authed.GET("/contracts/:id", handler.GetContract)
	authed.GET("/contracts/:id/milestones", handler.ListMilestones)
	authed.POST("/contracts/:id/sign", handler.SignContract)
	authed.GET("/notifications", handler.ListNotifications)
	authed.POST("/notifications/read", handler.MarkAllNotificationsRead)
	authed.POST("/notifications/:id/read", handler.MarkNotificationRead)

	// Vendor endpoints
	vendors := authed.Group("", middleware.RequireVendorContext)
	vendors.PUT("/vendors/me", handler.UpdateVendor)
	vendors.POST("/tenders/:id/bids", handler.SubmitBid)
	vendors.POST("/tenders/:id/clarifications", handler.AskClarification)
	vendors.POST("/bids/:id/withdraw", handler.WithdrawBid)
	vendors.POST("/bids/:id/documents", handler.AddBidDocument)
	vendors.GET("/my/bids", handler.ListMyBids)
	vendors.GET("/my/contracts", handler.ListMyContracts)
	vendors.POST("/milestones/:id/start", handler.StartMilestone)
	vendors.POST("/milestones/:id/complete", handler.CompleteMilestone)
	vendors.POST("/milestones/:id/delay", handler.DelayMilestone)

	// Organization endpoints
	orgs := authed.Group("", middleware.RequireOrganizationContext)
	orgs.PUT("/organizations/me", handler.UpdateOrganization)
	orgs.POST("/tenders", handler.CreateTender)
	orgs.PUT("/tenders/:id", handler.UpdateTender)
	orgs.DELETE("/tenders/:id", handler.DeleteTender)
	orgs.POST("/tenders/:id/publish", handler.PublishTender)
	orgs.POST("/tenders/:id/close", handler.CloseTender)
	orgs.POST("/tenders/:id/cancel", handler.CancelTender)
	orgs.POST("/tenders/:id/amendments", handler.CreateAmendment)
	orgs.POST("/tenders/:id/documents", handler.AddTenderDocument)
	orgs.POST("/tenders/:id/evaluations", handler.StartEvaluation)
	orgs.GET("/tenders/:id/ranking", handler.RankTenderBids)
	orgs.GET("/my/tenders", handler.ListMyTenders)
	orgs.GET("/my/tenders/:id", handler.GetTender)
	orgs.GET("/received-bids", handler.ListReceivedBids)
	orgs.GET("/evaluations/:id", handler.GetEvaluation)
	orgs.POST("/evaluations/:id/scores", handler.ScoreBid)
	orgs.POST("/evaluations/:id/complete", handler.CompleteEvaluation)
	orgs.POST("/bids/:id/decide", handler.DecideBid)
	orgs.POST("/bids/:id/award", handler.AwardBid)
	orgs.POST("/contracts/:id/activate", handler.ActivateContract)
	orgs.POST("/contracts/:id/suspend", handler.SuspendContract)
	orgs.POST("/contracts/:id/resume", handler.ResumeContract)
	orgs.POST("/contracts/:id/complete", handler.CompleteContract)
	orgs.POST("/contracts/:id/terminate", handler.TerminateContract)
	orgs.POST("/contracts/:id/milestones", handler.CreateMilestone)
	orgs.POST("/contracts/:id/review", handler.ReviewContract)
	orgs.POST("/milestones/:id/verify", handler.VerifyMilestone)
	orgs.POST("/milestones/:id/pay", handler.PayMilestone)
	orgs.POST("/clarifications/:id/answer", handler.AnswerClarification)
	orgs.GET("/organization/contracts", handler.ListOrganizationContracts)

	// Admin endpoints
	admin := authed.Group("/admin", middleware.RequireAdmin)
	admin.POST("/sweep", handler.RunSweep)
	admin.GET("/stats", handler.GetAdminStats)
	admin.POST("/vendors/:id/verify", handler.VerifyVendor)
	admin.POST("/vendors/:id/blacklist", handler.BlacklistVendor)
	admin.POST("/vendors/:id/unblacklist", handler.UnblacklistVendor)
	admin.POST("/organizations/:id/verify", handler.VerifyOrganization)
	admin.POST("/tenders/:id/feature", handler.FeatureTender)
	admin.POST("/categories", handler.CreateCategory)
	admin.PUT("/categories/:id", handler.UpdateCategory)
	admin.DELETE("/categories/:id", handler.DeleteCategory)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
