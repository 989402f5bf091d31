package recipient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler exposes recipient endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a recipient HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type addRequest struct {
	DeliveryMethod string `json:"deliveryMethod"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Bank           string `json:"bank"`
	Account        string `json:"account"`
	NetworkCode    string `json:"networkCode"`
	NetworkName    string `json:"networkName"`
}

type recipientPayload struct {
	ID            string `json:"id"`
	SeqID         int64  `json:"seq_id"`
	Method        string `json:"method"`
	FullName      string `json:"full_name"`
	MomoNumber    string `json:"momo_number,omitempty"`
	NetworkCode   string `json:"network_code,omitempty"`
	NetworkName   string `json:"network_name,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// AddRaw creates a recipient for the authenticated user.
func (h *Handler) AddRaw(c *fiber.Ctx) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}

	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.service.Add(c.UserContext(), AddInput{
		OwnerID:     ownerID,
		Method:      DeliveryMethod(req.DeliveryMethod),
		Name:        req.Name,
		Phone:       req.Phone,
		Bank:        req.Bank,
		Account:     req.Account,
		NetworkCode: req.NetworkCode,
		NetworkName: req.NetworkName,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"errors":  verr.Messages,
				"message": "validation failed",
			})
		}
		if errors.Is(err, ErrDuplicate) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toPayload(rec)})
}

// Raw returns a page of the caller's recipients. Params: lastId (cursor),
// limit, method. An empty data array signals the end of the feed.
func (h *Handler) Raw(c *fiber.Ctx) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}

	method := DeliveryMethod(c.Query("method"))
	lastID, _ := strconv.ParseInt(c.Query("lastId", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit", "0"))

	recs, err := h.service.List(c.UserContext(), ownerID, method, lastID, limit)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"errors":  verr.Messages,
				"message": "validation failed",
			})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	payload := make([]recipientPayload, 0, len(recs))
	for _, rec := range recs {
		payload = append(payload, toPayload(rec))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": payload})
}

// BankOptions enumerates the mobile money networks.
func (h *Handler) BankOptions(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": h.service.NetworkOptions()})
}

func toPayload(rec Recipient) recipientPayload {
	return recipientPayload{
		ID:            rec.ID.String(),
		SeqID:         rec.SeqID,
		Method:        string(rec.Method),
		FullName:      rec.FullName,
		MomoNumber:    rec.MomoNumber,
		NetworkCode:   rec.NetworkCode,
		NetworkName:   rec.NetworkName,
		BankName:      rec.BankName,
		AccountNumber: rec.AccountNumber,
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
