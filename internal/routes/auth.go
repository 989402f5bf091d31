package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/swiftsend/swiftsend/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints. The refresh endpoint is
// cookie-credentialed, so none of these require a bearer token.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/generate_new_access_token", h.GenerateNewAccessToken)
	group.Get("/me/:id", h.Me)
}
