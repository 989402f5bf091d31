package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/swiftsend/swiftsend/internal/recipient"
)

// StatusSubmitted marks a transfer accepted for processing. Settlement is an
// external collaborator; records never advance past this status here.
const StatusSubmitted = "submitted"

// Transfer is an immutable record of a submitted remittance. Monetary values
// are minor units (cents and pesewas); Rate snapshots the quote the sender
// accepted.
type Transfer struct {
	ID                   uuid.UUID
	OwnerID              uuid.UUID
	RecipientID          uuid.UUID
	Method               recipient.DeliveryMethod
	Reference            string
	PaymentMethod        string
	AmountCents          int64
	FeeCents             int64
	TotalCents           int64
	Rate                 float64
	RecipientAmountMinor int64
	Status               string
	CreatedAt            time.Time
}
