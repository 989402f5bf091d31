package identity

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered sender account.
type User struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PasswordHash     []byte
	DoneOnboarding   bool
	SelectedCurrency string
	CreatedAt        time.Time
}

// Credentials carries a sign-in or sign-up request.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate is a partial update applied to an existing user. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Name             *string
	DoneOnboarding   *bool
	SelectedCurrency *string
}

// LoginPlaceholder is a one-shot handle minted after a federated (Google)
// sign-in. The browser is redirected with the placeholder ID, which the
// client exchanges once for a user and token pair.
type LoginPlaceholder struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
}
