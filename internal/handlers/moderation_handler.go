package handlers

import (
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/gofiber/fiber/v2"
)

// ModerationHandler serves the admin panel.
type ModerationHandler struct {
	moderationService *services.ModerationService
	storyService      *services.StoryService
	store             *store.Store
}

func NewModerationHandler(moderationService *services.ModerationService, storyService *services.StoryService, st *store.Store) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, storyService: storyService, store: st}
}

// ListApps serves GET /admin/apps. ?queue=true returns the review queue,
// ?status= narrows to one status.
func (h *ModerationHandler) ListApps(c *fiber.Ctx) error {
	if c.QueryBool("queue") {
		queue := h.moderationService.Queue()
		resp := dto.ModerationQueueResponse{Apps: dto.NewAppResponses(queue)}
		for _, a := range queue {
			if a.Status == models.StatusPending {
				resp.Pending++
			} else {
				resp.Review++
			}
		}
		return c.JSON(resp)
	}

	apps, err := h.moderationService.All(c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AppListResponse{Apps: dto.NewAppResponses(apps), Total: len(apps)})
}

func (h *ModerationHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	app, err := h.moderationService.SetStatus(c.UserContext(), c.Params("id"), models.Status(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAppResponse(app))
}

func (h *ModerationHandler) Vendors(c *fiber.Ctx) error {
	return c.JSON(h.store.Vendors())
}

func (h *ModerationHandler) Users(c *fiber.Ctx) error {
	users := h.store.Users()
	out := make([]dto.UserResponse, len(users))
	for i, u := range users {
		out[i] = dto.NewUserResponse(u)
	}
	return c.JSON(out)
}

func (h *ModerationHandler) CreateStory(c *fiber.Ctx) error {
	var req dto.StoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	story, err := h.storyService.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

func (h *ModerationHandler) DeleteStory(c *fiber.Ctx) error {
	if err := h.storyService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Story deleted"})
}
