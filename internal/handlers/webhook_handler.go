package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
)

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	cfg                 *config.Config
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{subscriptionService: subscriptionService, cfg: cfg}
}

// HandleRevenueCat applies billing events to vendor tiers. The Authorization
// header must equal REVENUECAT_WEBHOOK_AUTH.
func (h *WebhookHandler) HandleRevenueCat(c *fiber.Ctx) error {
	if h.cfg.RevenueCatAuth == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured",
		})
	}
	if subtle.ConstantTimeCompare([]byte(c.Get(fiber.HeaderAuthorization)), []byte(h.cfg.RevenueCatAuth)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	body := c.Body()
	if !gjson.ValidBytes(body) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}
	// Events we cannot attribute are acknowledged so the sender stops retrying.
	fields := gjson.GetManyBytes(body, "event.type", "event.app_user_id")
	if fields[0].String() == "" || fields[1].String() == "" {
		slog.Warn("webhook without event type or user", "request_id", requestID(c))
		return c.JSON(fiber.Map{"received": true})
	}

	var webhook dto.RevenueCatWebhook
	if err := json.Unmarshal(body, &webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.subscriptionService.HandleWebhookEvent(c.UserContext(), &webhook.Event); err != nil {
		slog.Error("webhook processing failed",
			"component", "webhooks",
			"vendor_id", webhook.Event.AppUserID,
			"event_type", webhook.Event.Type,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "vendor_id", webhook.Event.AppUserID, "event_type", webhook.Event.Type)
	return c.JSON(fiber.Map{"received": true})
}
