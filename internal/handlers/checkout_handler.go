package handlers

import (
	"errors"
	"log"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler starts checkouts and hands the browser over to the payment page.
type CheckoutHandler struct {
	sessions *services.SessionRegistry
	// returnURL is where the browser goes after cancelling on the payment page.
	returnURL string
}

// NewCheckoutHandler creates a new CheckoutHandler. An empty returnURL makes the
// cancel route answer with the checkout state instead of redirecting.
func NewCheckoutHandler(sessions *services.SessionRegistry, returnURL string) *CheckoutHandler {
	return &CheckoutHandler{
		sessions:  sessions,
		returnURL: returnURL,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Get("/", h.HandleGetCheckout)
	checkoutRoutes.Post("/", h.HandleCheckout)
	checkoutRoutes.Post("/reset", h.HandleResetCheckout)
	checkoutRoutes.Get("/cancel", h.HandleCancelCheckout)
}

// HandleGetCheckout returns the current checkout state.
func (h *CheckoutHandler) HandleGetCheckout(c *fiber.Ctx) error {
	session := h.sessions.Get(middleware.SessionID(c))
	return c.JSON(session.Checkout.State())
}

// HandleCheckout runs a checkout attempt. On success the response is a 303 to the
// payment page; every failure leaves the cart as it was.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	session := h.sessions.Get(middleware.SessionID(c))

	var target string
	nav := services.NavigatorFunc(func(url string) { target = url })

	err := session.Checkout.Checkout(c.UserContext(), session.Cart, nav)
	state := session.Checkout.State()
	if err == nil {
		c.Location(target)
		return c.Status(fiber.StatusSeeOther).JSON(fiber.Map{
			"url":      target,
			"checkout": state,
		})
	}

	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":  "Your cart is empty",
			"checkout": state,
		})
	case errors.Is(err, services.ErrCheckoutInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":  "A checkout is already in progress",
			"checkout": state,
		})
	case errors.Is(err, services.ErrMissingRedirectTarget), errors.Is(err, services.ErrGatewayUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":  state.LastError,
			"checkout": state,
		})
	default:
		log.Printf("Unexpected checkout error for session %s: %v", session.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message":  "Could not start checkout",
			"checkout": state,
		})
	}
}

// HandleResetCheckout returns the checkout to idle after the user comes back from the
// payment page without a confirmed purchase.
func (h *CheckoutHandler) HandleResetCheckout(c *fiber.Ctx) error {
	session := h.sessions.Get(middleware.SessionID(c))
	return c.JSON(session.Checkout.Reset())
}

// HandleCancelCheckout is the landing page of the gateway's cancel link. The browser
// arrives here with its cart cookie, so the session is reset before sending it on.
func (h *CheckoutHandler) HandleCancelCheckout(c *fiber.Ctx) error {
	session := h.sessions.Get(middleware.SessionID(c))
	state := session.Checkout.Reset()
	if h.returnURL == "" {
		return c.JSON(state)
	}
	return c.Redirect(h.returnURL, fiber.StatusSeeOther)
}
