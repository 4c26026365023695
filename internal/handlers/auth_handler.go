package handlers

import (
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// StartSession issues a token for a new anonymous session.
func (h *AuthHandler) StartSession(c *fiber.Ctx) error {
	resp, err := h.authService.StartSession()
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) CurrentSession(c *fiber.Ctx) error {
	resp, err := h.authService.Refresh(currentSession(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) ConfirmAgeGate(c *fiber.Ctx) error {
	resp, err := h.authService.ConfirmAgeGate(c.UserContext(), currentSession(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	resp, err := h.authService.Login(c.UserContext(), currentSession(c).ID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterVendorRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	resp, err := h.authService.RegisterVendor(c.UserContext(), currentSession(c).ID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	resp, err := h.authService.Logout(c.UserContext(), currentSession(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) DebugLogin(c *fiber.Ctx) error {
	var req dto.DebugLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	resp, err := h.authService.DebugLogin(c.UserContext(), currentSession(c).ID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
