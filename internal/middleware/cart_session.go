package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// CartSessionCookie names the cookie carrying the cart session id.
	CartSessionCookie = "cart_session"
	// LocalSessionID is the Locals key holding the cart session id.
	LocalSessionID = "session_id"
)

// CartSession makes sure every request has a cart session id, issuing a new
// session cookie when the request carries none or an unparsable one.
func CartSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(CartSessionCookie)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
			c.Cookie(&fiber.Cookie{
				Name:     CartSessionCookie,
				Value:    id,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(LocalSessionID, id)
		return c.Next()
	}
}

// SessionID returns the cart session id stored by CartSession.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalSessionID).(string)
	return id
}
