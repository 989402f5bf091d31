package recipient

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryMethod is the channel a recipient receives funds through.
type DeliveryMethod string

const (
	// MethodMobile delivers to a mobile money wallet (MTN, Vodafone, AirtelTigo).
	MethodMobile DeliveryMethod = "mobile"
	// MethodBank delivers to a Ghanaian bank account.
	MethodBank DeliveryMethod = "bank"
	// MethodCrypto is declared in the data model but not offered yet; every
	// selector and validation path rejects it.
	MethodCrypto DeliveryMethod = "crypto"
)

// Enabled reports whether the method can currently be used for transfers.
func (m DeliveryMethod) Enabled() bool {
	return m == MethodMobile || m == MethodBank
}

// Recipient is an append-only saved payee. SeqID is a monotonically
// increasing sequence used as the pagination cursor.
type Recipient struct {
	ID            uuid.UUID
	SeqID         int64
	OwnerID       uuid.UUID
	Method        DeliveryMethod
	FullName      string
	MomoNumber    string
	NetworkCode   string
	NetworkName   string
	BankName      string
	AccountNumber string
	CreatedAt     time.Time
}

// Identifier returns the per-method unique handle used for duplicate checks.
func (r Recipient) Identifier() string {
	if r.Method == MethodMobile {
		return r.MomoNumber
	}
	return r.BankName + "/" + r.AccountNumber
}

// NetworkOption is a selectable mobile money network.
type NetworkOption struct {
	Name string `json:"name"`
	Code string `json:"code"`
}
