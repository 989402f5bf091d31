package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/swiftsend/swiftsend/internal/recipient"
)

// RegisterRecipientRoutes wires the recipient feed endpoints.
func RegisterRecipientRoutes(r fiber.Router, h *recipient.Handler, bearer fiber.Handler) {
	group := r.Group("/recipients", bearer)
	group.Get("/raw", h.Raw)
	group.Post("/add-raw", h.AddRaw)
	group.Get("/get_bank_options", h.BankOptions)
}
