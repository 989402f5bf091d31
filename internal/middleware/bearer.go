package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/swiftsend/swiftsend/internal/token"
)

// BearerAuth validates the Authorization header and stores the caller's user
// ID in request locals. Refresh tokens are rejected here; only access tokens
// authenticate API calls.
func BearerAuth(tokens *token.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		userID, err := tokens.ParseAccessToken(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", userID.String())
		return c.Next()
	}
}
