package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/orderbot-backend/internal/config"
	"github.com/Ananth-NQI/orderbot-backend/internal/handlers"
	"github.com/Ananth-NQI/orderbot-backend/internal/middleware"
)

// Handlers groups the HTTP handlers the routes dispatch to
type Handlers struct {
	WhatsApp *handlers.WhatsAppHandler
	Health   *handlers.HealthHandler
	Orders   *handlers.OrderHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, h Handlers) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		endpoints := fiber.Map{
			"health":  "/health",
			"webhook": "/webhook/whatsapp",
		}
		if cfg.IsDevelopment() {
			endpoints["test_whatsapp"] = "/test/whatsapp"
		}
		if cfg.AdminToken != "" {
			endpoints["orders"] = "/admin/orders"
		}
		return c.JSON(fiber.Map{
			"message":   "Welcome to OrderBot Backend!",
			"version":   h.Health.Version,
			"endpoints": endpoints,
		})
	})

	app.Get("/health", h.Health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook - ENVIRONMENT-AWARE VALIDATION
	if cfg.IsDevelopment() || cfg.DisableWebhookValidation {
		// Development: Skip validation for ngrok
		webhooks.Post("/whatsapp", h.WhatsApp.HandleWebhook)
		log.Println("⚠️  WhatsApp webhook validation DISABLED")
	} else {
		// Production: Validate webhook signature
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.Twilio.AuthToken, cfg.PublicURL), h.WhatsApp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if cfg.IsDevelopment() {
		app.Post("/test/whatsapp", h.WhatsApp.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	if cfg.AdminToken == "" {
		log.Println("⚠️  ADMIN_TOKEN not set - admin routes disabled")
		return
	}
	admin := app.Group("/admin", middleware.RequireAdminToken(cfg.AdminToken))
	admin.Get("/orders", h.Orders.ListOrders)
	admin.Get("/orders/:reference", h.Orders.GetOrder)
}
