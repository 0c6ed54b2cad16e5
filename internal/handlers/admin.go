package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sokolabs/sokobot-backend/internal/communities"
	"github.com/sokolabs/sokobot-backend/internal/session"
	"github.com/sokolabs/sokobot-backend/internal/storage"
)

// AdminHandler exposes operational read-only endpoints.
type AdminHandler struct {
	store    storage.Store
	sessions *session.Store
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store storage.Store, sessions *session.Store) *AdminHandler {
	return &AdminHandler{store: store, sessions: sessions}
}

// GetSessionStats reports live session counts grouped by flow and role.
func (h *AdminHandler) GetSessionStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"sessions": h.sessions.GetStats(),
	})
}

// GetPlatformOverview reports shop counts per community.
func (h *AdminHandler) GetPlatformOverview(c *fiber.Ctx) error {
	shopCounts := make(map[string]int, len(communities.All()))
	totalShops := 0
	for _, community := range communities.All() {
		shops, err := h.store.GetShopsByCommunity(c.Context(), community.Code)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch shops",
			})
		}
		shopCounts[community.Code] = len(shops)
		totalShops += len(shops)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"overview": fiber.Map{
			"total_shops":     totalShops,
			"shops":           shopCounts,
			"active_sessions": len(h.sessions.ActiveSessions()),
			"platform_status": "operational",
			"last_updated":    time.Now(),
		},
	})
}
