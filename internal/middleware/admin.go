package middleware

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired accepts the X-Admin-Token header, a session signed in with
// the admin role, or a non-vendor session whose email is listed in
// ADMIN_EMAILS. Vendor accounts are self-registered and never elevated.
func AdminRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			if subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(cfg.AdminToken)) == 1 {
				return c.Next()
			}
		}

		sess := session.Get(c)
		if sess == nil || !sess.Authenticated() {
			return unauthorized(c)
		}
		if sess.Role == models.RoleAdmin || (sess.Role != models.RoleVendor && cfg.IsAdminEmail(sess.Email)) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

// VendorRequired accepts sessions signed in as a vendor.
func VendorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.Get(c)
		if sess == nil || !sess.Authenticated() {
			return unauthorized(c)
		}
		if !sess.HasRole(models.RoleVendor) || sess.VendorID == "" {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Vendor access required",
			})
		}
		return c.Next()
	}
}
