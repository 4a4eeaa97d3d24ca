package handlers

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests against the session's cart.
type CartHandler struct {
	catalog  *services.CatalogSource
	sessions *services.SessionRegistry
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(catalog *services.CatalogSource, sessions *services.SessionRegistry) *CartHandler {
	return &CartHandler{
		catalog:  catalog,
		sessions: sessions,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveProduct)
	cartRoutes.Delete("/entries/:entryId", h.HandleRemoveEntry)
	cartRoutes.Post("/toggle/:productId", h.HandleToggleProduct)
}

// AddItemRequest represents the request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// HandleGetCart returns the cart with its item count and total.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	session := h.sessions.Get(middleware.SessionID(c))
	return c.JSON(toCartView(session))
}

// HandleAddItem appends one line item for the requested product.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		errorMessages := make(map[string]string)
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	session := h.sessions.Get(middleware.SessionID(c))
	return h.addProduct(c, session, req.ProductID)
}

// HandleRemoveProduct removes every line item of a product.
func (h *CartHandler) HandleRemoveProduct(c *fiber.Ctx) error {
	session := h.sessions.Get(middleware.SessionID(c))
	removed := session.Cart.Remove(c.Params("productId"))
	return c.JSON(fiber.Map{
		"removed": removed,
		"cart":    toCartView(session),
	})
}

// HandleRemoveEntry removes exactly one line item.
func (h *CartHandler) HandleRemoveEntry(c *fiber.Ctx) error {
	entryID := c.Params("entryId")
	session := h.sessions.Get(middleware.SessionID(c))
	if !session.Cart.RemoveEntry(entryID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Cart entry %s not found", entryID),
		})
	}
	return c.JSON(fiber.Map{
		"removed": 1,
		"cart":    toCartView(session),
	})
}

// HandleToggleProduct removes the product when it is in the cart and adds it otherwise.
func (h *CartHandler) HandleToggleProduct(c *fiber.Ctx) error {
	productID := c.Params("productId")
	session := h.sessions.Get(middleware.SessionID(c))

	if session.Cart.Contains(productID) {
		removed := session.Cart.Remove(productID)
		return c.JSON(fiber.Map{
			"in_cart": false,
			"removed": removed,
			"cart":    toCartView(session),
		})
	}
	return h.addProduct(c, session, productID)
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	session := h.sessions.Get(middleware.SessionID(c))
	session.Cart.Clear()
	return c.JSON(toCartView(session))
}

func (h *CartHandler) addProduct(c *fiber.Ctx, session *services.ShopSession, productID string) error {
	product, err := h.catalog.Lookup(productID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCatalogLoading):
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"message": "The product list is still loading, please try again",
			})
		case errors.Is(err, services.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		default:
			log.Printf("Error looking up product %s: %v", productID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not add product to cart",
				"error":   err.Error(),
			})
		}
	}

	item := session.Cart.Add(product)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"in_cart": true,
		"item":    toLineItemView(item),
		"cart":    toCartView(session),
	})
}
