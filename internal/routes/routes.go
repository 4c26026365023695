package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Legal      *handlers.LegalHandler
	Storefront *handlers.StorefrontHandler
	Vendor     *handlers.VendorHandler
	Moderation *handlers.ModerationHandler
	Webhook    *handlers.WebhookHandler
}

func Setup(app *fiber.App, cfg *config.Config, sessions *session.Manager, h Handlers) {
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)

	// Webhooks authenticate with a shared secret, not a session.
	api.Post("/webhooks/revenuecat", h.Webhook.HandleRevenueCat)

	optional := middleware.OptionalSession(cfg, sessions)
	required := middleware.SessionRequired(cfg, sessions)

	// Session
	api.Post("/session", h.Auth.StartSession)
	api.Get("/session", optional, h.Auth.CurrentSession)
	api.Post("/session/age-gate", optional, h.Auth.ConfirmAgeGate)

	// Auth: stricter limit, 10 req/min per IP
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}), optional)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/register", h.Auth.Register)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/debug-login", h.Auth.DebugLogin)

	// Storefront (public)
	api.Get("/storefront/apps", optional, h.Storefront.ListApps)
	api.Get("/storefront/categories", optional, h.Storefront.Categories)
	api.Get("/storefront/charts/:chart", optional, h.Storefront.Chart)
	api.Get("/apps/:id", optional, h.Storefront.GetApp)
	api.Get("/apps/:id/download", optional, h.Storefront.Download)
	api.Get("/stories", optional, h.Storefront.Stories)
	api.Get("/stories/:id", optional, h.Storefront.Story)
	api.Get("/vendors/:id", optional, h.Storefront.Vendor)

	// Vendor console
	vendor := api.Group("/vendor", required, middleware.VendorRequired())
	vendor.Get("/apps", h.Vendor.ListApps)
	vendor.Post("/apps", h.Vendor.CreateApp)
	vendor.Put("/apps/:id", h.Vendor.UpdateApp)
	vendor.Delete("/apps/:id", h.Vendor.DeleteApp)
	vendor.Get("/dashboard", h.Vendor.Dashboard)
	vendor.Put("/profile", h.Vendor.UpdateProfile)
	vendor.Put("/subscription", h.Vendor.ChangeSubscription)

	// Admin panel: admin session or X-Admin-Token
	admin := api.Group("/admin", optional, middleware.AdminRequired(cfg))
	admin.Get("/apps", h.Moderation.ListApps)
	admin.Put("/apps/:id/status", h.Moderation.SetStatus)
	admin.Get("/vendors", h.Moderation.Vendors)
	admin.Get("/users", h.Moderation.Users)
	admin.Post("/stories", h.Moderation.CreateStory)
	admin.Delete("/stories/:id", h.Moderation.DeleteStory)
}
