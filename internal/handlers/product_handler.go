package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const streamKeepAlive = 15 * time.Second

// ProductHandler serves the read-only product list.
type ProductHandler struct {
	catalog  *services.CatalogSource
	sessions *services.SessionRegistry
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog *services.CatalogSource, sessions *services.SessionRegistry) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		sessions: sessions,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/stream", h.HandleStreamProducts)
}

// HandleGetProducts returns the latest catalog snapshot, flagged with whether each
// product is in the caller's cart. While the catalog is unresolved, products is null.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, ok := h.catalog.Latest()
	if !ok {
		return c.JSON(fiber.Map{
			"loading":  true,
			"products": nil,
		})
	}

	session := h.sessions.Get(middleware.SessionID(c))
	return c.JSON(fiber.Map{
		"loading":  false,
		"products": toProductViews(products, session.Cart),
	})
}

// HandleStreamProducts pushes every catalog snapshot as a server-sent event until the
// client goes away.
func (h *ProductHandler) HandleStreamProducts(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	updates, unsubscribe := h.catalog.Subscribe()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()

		for {
			select {
			case products, ok := <-updates:
				if !ok {
					return
				}
				body, err := json.Marshal(toProductViews(products, nil))
				if err != nil {
					log.Printf("Error encoding catalog snapshot: %v", err)
					continue
				}
				fmt.Fprintf(w, "event: products\ndata: %s\n\n", body)
			case <-ticker.C:
				fmt.Fprint(w, ": keep-alive\n\n")
			}
			if err := w.Flush(); err != nil {
				// client disconnected
				return
			}
		}
	}))
	return nil
}
