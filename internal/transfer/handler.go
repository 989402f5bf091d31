package transfer

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/swiftsend/swiftsend/internal/recipient"
)

// Handler exposes transfer endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	RecipientID   string `json:"recipientId"`
	Method        string `json:"method"`
	AmountCents   int64  `json:"amountCents"`
	PaymentMethod string `json:"paymentMethod"`
	Reference     string `json:"reference"`
}

type transferPayload struct {
	ID                   string  `json:"id"`
	RecipientID          string  `json:"recipient_id"`
	Method               string  `json:"method"`
	Reference            string  `json:"reference"`
	PaymentMethod        string  `json:"payment_method"`
	AmountCents          int64   `json:"amount_cents"`
	FeeCents             int64   `json:"fee_cents"`
	TotalCents           int64   `json:"total_cents"`
	Rate                 float64 `json:"rate"`
	RecipientAmountMinor int64   `json:"recipient_amount_minor"`
	Status               string  `json:"status"`
	CreatedAt            string  `json:"created_at"`
}

// Submit records a transfer for the authenticated user.
func (h *Handler) Submit(c *fiber.Ctx) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid recipient id")
	}

	t, err := h.service.Submit(c.UserContext(), SubmitInput{
		OwnerID:       ownerID,
		RecipientID:   recipientID,
		Method:        recipient.DeliveryMethod(req.Method),
		AmountCents:   req.AmountCents,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toPayload(t)})
}

// History lists the caller's recent transfers, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	transfers, err := h.service.History(c.UserContext(), ownerID, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	payload := make([]transferPayload, 0, len(transfers))
	for _, t := range transfers {
		payload = append(payload, toPayload(t))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": payload})
}

func toPayload(t Transfer) transferPayload {
	return transferPayload{
		ID:                   t.ID.String(),
		RecipientID:          t.RecipientID.String(),
		Method:               string(t.Method),
		Reference:            t.Reference,
		PaymentMethod:        t.PaymentMethod,
		AmountCents:          t.AmountCents,
		FeeCents:             t.FeeCents,
		TotalCents:           t.TotalCents,
		Rate:                 t.Rate,
		RecipientAmountMinor: t.RecipientAmountMinor,
		Status:               t.Status,
		CreatedAt:            t.CreatedAt.Format(time.RFC3339),
	}
}

func callerID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}
