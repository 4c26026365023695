package handlers

import (
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/gofiber/fiber/v2"
)

// VendorHandler serves the vendor console. Routes sit behind
// middleware.VendorRequired, so the session always carries a vendor id.
type VendorHandler struct {
	appService          *services.AppService
	vendorService       *services.VendorService
	subscriptionService *services.SubscriptionService
}

func NewVendorHandler(appService *services.AppService, vendorService *services.VendorService, subscriptionService *services.SubscriptionService) *VendorHandler {
	return &VendorHandler{appService: appService, vendorService: vendorService, subscriptionService: subscriptionService}
}

func (h *VendorHandler) ListApps(c *fiber.Ctx) error {
	apps := h.appService.VendorApps(currentSession(c).VendorID)
	return c.JSON(dto.AppListResponse{Apps: dto.NewAppResponses(apps), Total: len(apps)})
}

func (h *VendorHandler) CreateApp(c *fiber.Ctx) error {
	var req dto.AppUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	app, err := h.appService.Upload(c.UserContext(), currentSession(c).VendorID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAppResponse(app))
}

func (h *VendorHandler) UpdateApp(c *fiber.Ctx) error {
	var req dto.AppUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	app, err := h.appService.Update(c.UserContext(), currentSession(c).VendorID, c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAppResponse(app))
}

func (h *VendorHandler) DeleteApp(c *fiber.Ctx) error {
	if err := h.appService.Delete(c.UserContext(), currentSession(c).VendorID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "App deleted"})
}

func (h *VendorHandler) Dashboard(c *fiber.Ctx) error {
	dash, err := h.vendorService.Dashboard(currentSession(c).VendorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dash)
}

func (h *VendorHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.VendorProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	page, err := h.vendorService.UpdateProfile(c.UserContext(), currentSession(c).VendorID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// ChangeSubscription switches the tier directly; no payment is taken.
func (h *VendorHandler) ChangeSubscription(c *fiber.Ctx) error {
	var req dto.SubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	vendor, err := h.subscriptionService.ChangeTier(c.UserContext(), currentSession(c).VendorID, models.Tier(req.Tier))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(vendor)
}
