package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/middleware"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(middleware.CartSession(), middleware.Identity(secret))
	app.Get("/", func(c *fiber.Ctx) error {
		role, _ := c.Locals(middleware.LocalRole).(string)
		user, _ := c.Locals(middleware.LocalUserID).(string)
		return c.JSON(fiber.Map{
			"session": middleware.SessionID(c),
			"role":    role,
			"user":    user,
		})
	})
	return app
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CartSessionCookie {
			return c
		}
	}
	return nil
}

func TestCartSession_IssuesAndKeepsID(t *testing.T) {
	app := newTestApp("")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	issued := sessionCookie(resp)
	require.NotNil(t, issued)
	_, err = uuid.Parse(issued.Value)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(issued)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Nil(t, sessionCookie(resp), "a valid session cookie is not reissued")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CartSessionCookie, Value: "forged"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	reissued := sessionCookie(resp)
	require.NotNil(t, reissued)
	assert.NotEqual(t, "forged", reissued.Value)
}

func TestIdentity_ReadsRoleFromValidToken(t *testing.T) {
	app := newTestApp("secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user_42",
		"role": "customer",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, "customer", body["role"])
	assert.Equal(t, "user_42", body["user"])

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_42",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err = expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "invalid tokens continue as anonymous")
	body = decode(t, resp)
	assert.Empty(t, body["role"])
	assert.Empty(t, body["user"])
}

func decode(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
