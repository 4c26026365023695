package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service and store errors to HTTP responses. Anything
// unrecognised is logged and reported as a 500.
func respondError(c *fiber.Ctx, err error) error {
	if ve, ok := services.AsValidation(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error: true, Message: "Please correct the highlighted fields", Fields: ve.Fields,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrAgeGateRequired),
		errors.Is(err, services.ErrDebugLoginDisabled):
		status = fiber.StatusForbidden
	case errors.Is(err, store.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, store.ErrEmailTaken),
		errors.Is(err, store.ErrQuotaExceeded):
		status = fiber.StatusConflict
	case errors.Is(err, store.ErrInvalidStatus),
		errors.Is(err, store.ErrInvalidTier):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		status = fiber.StatusRequestTimeout
	}

	if status == fiber.StatusInternalServerError {
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID(c),
			"error", err,
		}
		if sess := session.Get(c); sess != nil {
			attrs = append(attrs, "session_id", sess.ID)
		}
		slog.Error("request failed", attrs...)
		return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: "Internal server error"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid request body",
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// currentSession is the session loaded by middleware. Routes without session
// middleware get a throwaway anonymous one.
func currentSession(c *fiber.Ctx) *session.Session {
	if s := session.Get(c); s != nil {
		return s
	}
	return &session.Session{State: session.StateAnonymous}
}
