package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/database"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/delivery"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/logging"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/routes"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.StoreDriver == "postgres" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	categories, err := catalog.LoadFromFile(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load categories", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("categories loaded", "count", len(categories.All()))

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB, 5*time.Second)
	logging.Setup(cfg.LogLevel, dbLogHandler)

	cleanup, err := logging.StartCleanup(database.DB, cfg.LogRetention, cfg.LogCleanup)
	if err != nil {
		slog.Error("log cleanup schedule invalid", "schedule", cfg.LogCleanup, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := kvstore.FromConfig(ctx, cfg, database.DB)
	if err != nil {
		slog.Error("store backend unavailable", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	st, err := store.Open(ctx, backend, store.Options{})
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	go metrics.WatchStore(ctx, st)

	sessions := session.NewManager(backend, nil)
	notifier := services.NewNotifier(delivery.NewMailer(cfg))

	// Services
	authService := services.NewAuthService(st, sessions, notifier, cfg)
	moderationService := services.NewModerationService(st, notifier, cfg.SimulatedLatency)
	appService := services.NewAppService(st, categories, moderationService, delivery.NewDownloader(cfg), cfg.SimulatedLatency)
	vendorService := services.NewVendorService(st, sessions)
	storyService := services.NewStoryService(st)
	subscriptionService := services.NewSubscriptionService(st, sessions, cfg.PremiumEntitlementID)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	app.Use(metrics.Middleware())

	routes.Setup(app, cfg, sessions, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Health:     handlers.NewHealthHandler(st, database.Ping),
		Legal:      handlers.NewLegalHandler("Indie Market", cfg.MailFrom),
		Storefront: handlers.NewStorefrontHandler(appService, vendorService, storyService),
		Vendor:     handlers.NewVendorHandler(appService, vendorService, subscriptionService),
		Moderation: handlers.NewModerationHandler(moderationService, storyService, st),
		Webhook:    handlers.NewWebhookHandler(subscriptionService, cfg),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	<-cleanup.Stop().Done()
	notifier.Wait()
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := backend.Close(); err != nil {
		slog.Error("store backend close error", "error", err)
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
