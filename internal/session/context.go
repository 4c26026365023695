package session

import "github.com/gofiber/fiber/v2"

const localsKey = "session"

// Set stores s on the request context.
func Set(c *fiber.Ctx, s *Session) {
	c.Locals(localsKey, s)
}

// Get returns the session loaded by the session middleware, or nil.
func Get(c *fiber.Ctx) *Session {
	if s, ok := c.Locals(localsKey).(*Session); ok {
		return s
	}
	return nil
}
