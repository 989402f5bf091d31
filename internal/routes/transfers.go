package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/swiftsend/swiftsend/internal/transfer"
)

// RegisterTransferRoutes wires transfer submission and history endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler, bearer fiber.Handler) {
	group := r.Group("/transfers", bearer)
	group.Post("/", h.Submit)
	group.Get("/", h.History)
}
