package middleware

import (
	"fmt"
	"log"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

// Locals keys set by Identity.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// Identity reads an optional bearer token issued by the external identity provider and
// stores the subject and role in the Fiber context. Requests without a token, or with
// a token that fails verification, continue as anonymous.
// An empty secret disables verification entirely.
func Identity(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Next()
		}

		claims, err := parseClaims(parts[1], key)
		if err != nil {
			log.Printf("Identity token rejected: %v", err)
			return c.Next()
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Locals(LocalUserID, sub)
		}
		c.Locals(LocalRole, roleFromClaims(claims))
		return c.Next()
	}
}

func parseClaims(tokenString string, key []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// roleFromClaims looks for the role in the provider's "metadata" claim, then at top level.
func roleFromClaims(claims jwt.MapClaims) string {
	if metadata, ok := claims["metadata"].(map[string]interface{}); ok {
		if role, ok := metadata["role"].(string); ok {
			return role
		}
	}
	if role, ok := claims["role"].(string); ok {
		return role
	}
	return ""
}
