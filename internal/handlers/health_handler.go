package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	store *store.Store
	ping  func() error
}

// NewHealthHandler reports on st; ping checks the durable backend and may be
// nil for in-memory stores.
func NewHealthHandler(st *store.Store, ping func() error) *HealthHandler {
	return &HealthHandler{store: st, ping: ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	storeStatus := "ok"
	if h.ping != nil {
		if err := h.ping(); err != nil {
			storeStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     storeStatus,
		AppCount:  len(h.store.Apps()),
	})
}
