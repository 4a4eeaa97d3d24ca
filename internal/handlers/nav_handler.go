package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type navLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// NavHandler serves the header navigation for the current visitor.
type NavHandler struct {
	sessions *services.SessionRegistry
}

// NewNavHandler creates a new NavHandler.
func NewNavHandler(sessions *services.SessionRegistry) *NavHandler {
	return &NavHandler{
		sessions: sessions,
	}
}

// RegisterRoutes registers the navigation route with the Fiber app.
func (h *NavHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/nav", h.HandleGetNav)
}

// HandleGetNav lists the header links. Catalog management links are only shown to
// visitors whose identity carries the admin role.
func (h *NavHandler) HandleGetNav(c *fiber.Ctx) error {
	links := []navLink{{Label: "Home", Href: "/"}}

	role, _ := c.Locals(middleware.LocalRole).(string)
	if role == "admin" {
		links = append(links,
			navLink{Label: "Manage Products", Href: "/admin/manage-products"},
			navLink{Label: "Add Product", Href: "/admin/add-product"},
		)
	}

	session := h.sessions.Get(middleware.SessionID(c))
	return c.JSON(fiber.Map{
		"links":      links,
		"cart_count": session.Cart.Len(),
		"role":       role,
	})
}
