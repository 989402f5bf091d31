package transfer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/swiftsend/swiftsend/internal/notification"
	"github.com/swiftsend/swiftsend/internal/rates"
	"github.com/swiftsend/swiftsend/internal/recipient"
)

// Fee is 0.5% of the send amount for every enabled delivery method.
const feeBasisPoints = 50

const defaultListLimit = 50

// ErrInvalidAmount rejects non-positive send amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// SubmitInput captures a transfer submission.
type SubmitInput struct {
	OwnerID       uuid.UUID
	RecipientID   uuid.UUID
	Method        recipient.DeliveryMethod
	AmountCents   int64
	PaymentMethod string
	Reference     string
}

// Service records transfer submissions. There is no ledger posting here:
// settlement happens in an external system keyed by the record's ID.
type Service struct {
	repo     Repository
	rates    rates.Provider
	notifier notification.Notifier
}

// NewService constructs a transfer service.
func NewService(repo Repository, rateProvider rates.Provider, notifier notification.Notifier) *Service {
	return &Service{repo: repo, rates: rateProvider, notifier: notifier}
}

// Submit validates and stores a transfer record with a snapshot of the rate
// and fee the sender accepted.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Transfer, error) {
	if input.AmountCents <= 0 {
		return Transfer{}, ErrInvalidAmount
	}
	if !input.Method.Enabled() {
		return Transfer{}, fmt.Errorf("unsupported delivery method %q", input.Method)
	}
	if input.PaymentMethod == "" {
		return Transfer{}, errors.New("payment method is required")
	}
	if input.RecipientID == uuid.Nil {
		return Transfer{}, errors.New("recipient is required")
	}

	rate, err := s.rates.CurrentRate(ctx, rates.PairUSDGHS)
	if err != nil {
		return Transfer{}, fmt.Errorf("fetch rate: %w", err)
	}

	fee := input.AmountCents * feeBasisPoints / 10000
	t := Transfer{
		ID:                   uuid.New(),
		OwnerID:              input.OwnerID,
		RecipientID:          input.RecipientID,
		Method:               input.Method,
		Reference:            input.Reference,
		PaymentMethod:        input.PaymentMethod,
		AmountCents:          input.AmountCents,
		FeeCents:             fee,
		TotalCents:           input.AmountCents + fee,
		Rate:                 rate,
		RecipientAmountMinor: int64(math.Round(float64(input.AmountCents) * rate)),
		Status:               StatusSubmitted,
		CreatedAt:            time.Now().UTC(),
	}
	if t.Reference == "" {
		t.Reference = uuid.NewString()
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return Transfer{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferSubmitted,
			Destination: input.OwnerID.String(),
			Body:        fmt.Sprintf("Transfer %s submitted", t.Reference),
		})
	}

	return t, nil
}

// History lists the owner's most recent transfers.
func (s *Service) History(ctx context.Context, ownerID uuid.UUID, limit int) ([]Transfer, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.repo.ListByOwner(ctx, ownerID, limit)
}
