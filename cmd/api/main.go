package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/habitek/habitek-api/docs" // Swagger docs
	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/database"
	"github.com/habitek/habitek-api/internal/gateway"
	"github.com/habitek/habitek-api/internal/handlers"
	"github.com/habitek/habitek-api/internal/jobs"
	"github.com/habitek/habitek-api/internal/middleware"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/internal/services"
	"github.com/habitek/habitek-api/internal/storage"
	"github.com/habitek/habitek-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Habitek API
// @version 1.0
// @description REST API for the Habitek Building Management System

// @contact.name API Support
// @contact.email support@habitek.app

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Warn if Resend email is not configured
	if cfg.ResendAPIKey == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY not set. Recovery codes and receipts will only be logged.")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Apply schema migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Payment provider gateway; swap for a real processor in production
	processor := gateway.NewSandboxProcessor()

	// Initialize services
	svcs := services.NewServices(repos, worker, store, processor, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, cfg)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
			auth.POST("/forgot_password", h.Auth.ForgotPassword)
			auth.POST("/reset_password", h.Auth.ResetPassword)
		}

		// Payment provider webhook (public; authenticated by HMAC signature)
		v1.POST("/webhooks/payments", h.Payment.Webhook)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:user_id", h.User.Destroy)

				admin.POST("/buildings", h.Building.Create)
				admin.PUT("/buildings/:building_id", h.Building.Update)
				admin.DELETE("/buildings/:building_id", h.Building.Destroy)
				admin.DELETE("/units/:unit_id", h.Building.DestroyUnit)

				admin.POST("/buildings/:building_id/fee_plans", h.FeePlan.Create)
				admin.PUT("/fee_plans/:fee_plan_id", h.FeePlan.Update)
				admin.DELETE("/fee_plans/:fee_plan_id", h.FeePlan.Destroy)

				admin.DELETE("/payments/:payment_id", h.Payment.Destroy)

				admin.GET("/audit_logs", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Staff routes (admin or manager)
			staff := protected.Group("")
			staff.Use(middleware.RequireRole("admin", "manager"))
			{
				staff.GET("/users", h.User.Index)

				staff.POST("/buildings/:building_id/units", h.Building.CreateUnit)
				staff.PUT("/units/:unit_id", h.Building.UpdateUnit)

				staff.GET("/charges", h.Charge.Index)
				staff.POST("/charges", h.Charge.Create)
				staff.POST("/charges/generate", h.Charge.Generate)
				staff.POST("/charges/refresh_overdue", h.Charge.RefreshOverdue)
				staff.POST("/charges/:charge_id/cancel", h.Charge.Cancel)

				staff.GET("/payments", h.Payment.Index)
				staff.POST("/payments", h.Payment.Create)
				staff.PUT("/payments/:payment_id", h.Payment.Update)
				staff.POST("/payments/:payment_id/allocate", h.Payment.Allocate)
				staff.POST("/payments/:payment_id/receipt", h.Payment.UploadReceipt)

				staff.GET("/buildings/:building_id/ledger", h.Ledger.Index)
				staff.GET("/buildings/:building_id/expenses", h.Expense.Index)
				staff.POST("/buildings/:building_id/expenses", h.Expense.Create)

				staff.PUT("/service_requests/:request_id/status", h.ServiceRequest.UpdateStatus)
				staff.POST("/work_orders", h.WorkOrder.Create)
				staff.POST("/work_orders/:work_order_id/transition", h.WorkOrder.Transition)

				// Reports
				staff.GET("/buildings/:building_id/reports/collection", h.Report.Collection)
				staff.GET("/buildings/:building_id/reports/collection.csv", h.Report.CollectionCSV)
				staff.GET("/buildings/:building_id/reports/collection.xlsx", h.Report.CollectionXLSX)
				staff.GET("/buildings/:building_id/reports/aging", h.Report.Aging)
				staff.GET("/buildings/:building_id/reports/aging.csv", h.Report.AgingCSV)
				staff.GET("/buildings/:building_id/reports/aging.pdf", h.Report.AgingPDF)
			}

			// User data access (staff or the user themself)
			userData := protected.Group("/users/:user_id")
			userData.Use(middleware.RequireStaffOrOwner())
			{
				userData.GET("", h.User.Show)
				userData.GET("/units", h.User.Units)
				userData.PUT("", h.User.Update)
			}

			// All authenticated users
			protected.POST("/users/change_password", h.User.ChangePassword)

			protected.GET("/buildings", h.Building.Index)
			protected.GET("/buildings/:building_id", h.Building.Show)
			protected.GET("/buildings/:building_id/units", h.Building.Units)
			protected.GET("/buildings/:building_id/fee_plans", h.FeePlan.Index)
			protected.GET("/units/:unit_id", h.Building.ShowUnit)
			protected.GET("/units/:unit_id/charges", h.Charge.UnitCharges)

			protected.GET("/charges/:charge_id", h.Charge.Show)
			protected.GET("/payments/:payment_id", h.Payment.Show)
			protected.GET("/payments/:payment_id/receipt", h.Payment.DownloadReceipt)
			protected.POST("/payments/charge_card", h.Payment.ChargeCard)

			// Maintenance requests (residents report, staff resolve)
			protected.GET("/service_requests", h.ServiceRequest.Index)
			protected.POST("/service_requests", h.ServiceRequest.Create)
			protected.GET("/service_requests/:request_id", h.ServiceRequest.Show)
			protected.GET("/work_orders", h.WorkOrder.Index)
			protected.GET("/work_orders/:work_order_id", h.WorkOrder.Show)

			// Notifications (users manage their own)
			// Static route first so "read_all" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read_all", h.Notification.MarkAllAsRead)
				notifications.POST("/:notification_id/read", h.Notification.MarkAsRead)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Sweep for overdue charges every hour
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Refreshing overdue charge statuses...")
		_, err := svcs.Charge.RefreshOverdueStatuses(ctx)
		return err
	})

	// Generate monthly dues for buildings enrolled in automatic billing.
	// GenerateCharges skips existing unit/period pairs, so the daily cadence
	// only matters on the first run of each month.
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Running scheduled charge generation...")
		return svcs.Charge.GenerateScheduledCharges(ctx)
	})

	// Daily payment due reminders
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending upcoming due reminders...")
		_, err := svcs.Payment.SendUpcomingDueReminders(ctx, 3)
		return err
	})

	logger.Info("Scheduled recurring jobs")
}
