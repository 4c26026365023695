package handlers

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/views"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultChartSize = 10
	maxChartSize     = 50
)

type StorefrontHandler struct {
	appService    *services.AppService
	vendorService *services.VendorService
	storyService  *services.StoryService
}

func NewStorefrontHandler(appService *services.AppService, vendorService *services.VendorService, storyService *services.StoryService) *StorefrontHandler {
	return &StorefrontHandler{appService: appService, vendorService: vendorService, storyService: storyService}
}

// ListApps serves GET /storefront/apps?category=&q=&sort=.
func (h *StorefrontHandler) ListApps(c *fiber.Ctx) error {
	sess := currentSession(c)
	apps, err := h.appService.Storefront(views.Filter{
		Category:       c.Query("category", "all"),
		Query:          c.Query("q"),
		MatureUnlocked: sess.MatureUnlocked,
	}, c.Query("sort", "downloads"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AppListResponse{Apps: dto.NewAppResponses(apps), Total: len(apps)})
}

func (h *StorefrontHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(h.appService.Categories(currentSession(c).MatureUnlocked))
}

// Chart serves GET /storefront/charts/:chart?limit=.
func (h *StorefrontHandler) Chart(c *fiber.Ctx) error {
	n := c.QueryInt("limit", defaultChartSize)
	if n <= 0 || n > maxChartSize {
		n = defaultChartSize
	}
	apps, err := h.appService.Chart(c.Params("chart"), currentSession(c).MatureUnlocked, n)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AppListResponse{Apps: dto.NewAppResponses(apps), Total: len(apps)})
}

func (h *StorefrontHandler) GetApp(c *fiber.Ctx) error {
	app, err := h.appService.Get(currentSession(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAppResponse(app))
}

// Download streams the package, or redirects to the direct link when the
// fetch failed. ?format=json reports the outcome without the body. The
// install status is always "installed".
func (h *StorefrontHandler) Download(c *fiber.Ctx) error {
	result, err := h.appService.Download(c.UserContext(), currentSession(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set("X-Install-Status", result.Status)

	resp := dto.DownloadResponse{AppID: result.App.ID, Status: result.Status, FallbackURL: result.FallbackURL}
	if result.Package != nil {
		resp.Bytes = len(result.Package.Body)
	}
	if c.Query("format") == "json" {
		return c.JSON(resp)
	}

	switch {
	case result.Package != nil:
		contentType := result.Package.ContentType
		if contentType == "" {
			contentType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.Package.Filename))
		return c.Send(result.Package.Body)
	case result.FallbackURL != "":
		return c.Redirect(result.FallbackURL, fiber.StatusFound)
	default:
		return c.JSON(resp)
	}
}

func (h *StorefrontHandler) Stories(c *fiber.Ctx) error {
	return c.JSON(h.storyService.List(currentSession(c)))
}

func (h *StorefrontHandler) Story(c *fiber.Ctx) error {
	story, err := h.storyService.Get(currentSession(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(story)
}

func (h *StorefrontHandler) Vendor(c *fiber.Ctx) error {
	page, err := h.vendorService.PublicPage(c.Params("id"), currentSession(c).MatureUnlocked)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
