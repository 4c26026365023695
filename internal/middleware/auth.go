package middleware

import (
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionRequired rejects requests without a valid session token and loads
// the session it names.
func SessionRequired(cfg *config.Config, sessions *session.Manager) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, _ := c.Locals("user").(*jwt.Token)
			if token == nil {
				return unauthorized(c)
			}
			sid, err := session.SessionIDFromClaims(token)
			if err != nil {
				return unauthorized(c)
			}
			session.Set(c, sessions.Load(c.UserContext(), sid))
			return c.Next()
		},
	})
}

// OptionalSession loads the session when a valid token is present and an
// anonymous session otherwise. It never rejects.
func OptionalSession(cfg *config.Config, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw != "" {
			sid, err := session.ParseToken(cfg.JWTSecret, raw)
			if err == nil {
				session.Set(c, sessions.Load(c.UserContext(), sid))
				return c.Next()
			}
			slog.Debug("ignoring invalid session token", "path", c.Path())
		}
		session.Set(c, sessions.New())
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
