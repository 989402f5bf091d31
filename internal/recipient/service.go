package recipient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// ValidationError aggregates user-facing field messages, surfaced to the
// client as a 422 with an errors array.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// AddInput captures the add-recipient request body.
type AddInput struct {
	OwnerID       uuid.UUID
	Method        DeliveryMethod
	Name          string
	Phone         string
	Bank          string
	Account       string
	NetworkCode   string
	NetworkName   string
}

// Service manages the saved-recipient feed.
type Service struct {
	repo Repository
}

// NewService creates a recipient service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add validates and stores a new recipient. Recipients are append-only;
// re-adding the same identifier reports ErrDuplicate.
func (s *Service) Add(ctx context.Context, input AddInput) (Recipient, error) {
	var msgs []string
	if !input.Method.Enabled() {
		msgs = append(msgs, "select a delivery method")
	}
	if strings.TrimSpace(input.Name) == "" {
		msgs = append(msgs, "recipient name is required")
	}
	switch input.Method {
	case MethodMobile:
		if strings.TrimSpace(input.Phone) == "" {
			msgs = append(msgs, "recipient mobile number is required")
		}
	case MethodBank:
		if strings.TrimSpace(input.Bank) == "" || strings.TrimSpace(input.Account) == "" {
			msgs = append(msgs, "recipient bank details are required")
		}
	}
	if len(msgs) > 0 {
		return Recipient{}, &ValidationError{Messages: msgs}
	}

	rec := Recipient{
		ID:            uuid.New(),
		OwnerID:       input.OwnerID,
		Method:        input.Method,
		FullName:      strings.TrimSpace(input.Name),
		MomoNumber:    strings.TrimSpace(input.Phone),
		NetworkCode:   input.NetworkCode,
		NetworkName:   input.NetworkName,
		BankName:      strings.TrimSpace(input.Bank),
		AccountNumber: strings.TrimSpace(input.Account),
		CreatedAt:     time.Now().UTC(),
	}

	return s.repo.Create(ctx, rec)
}

// List pages through the owner's recipients for one delivery method.
// lastSeqID of zero starts from the beginning; an empty result means the
// feed is exhausted.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, method DeliveryMethod, lastSeqID int64, limit int) ([]Recipient, error) {
	if !method.Enabled() {
		return nil, &ValidationError{Messages: []string{"unsupported delivery method"}}
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ListAfter(ctx, ownerID, method, lastSeqID, limit)
}

// NetworkOptions enumerates the supported mobile money networks. The set is
// static; networks rarely change.
func (s *Service) NetworkOptions() []NetworkOption {
	return []NetworkOption{
		{Name: "MTN", Code: "MTN"},
		{Name: "Vodafone", Code: "VOD"},
		{Name: "AirtelTigo", Code: "ATL"},
	}
}
