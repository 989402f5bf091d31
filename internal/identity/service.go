package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCurrency = "USD"
	placeholderTTL  = 5 * time.Minute
)

// ErrInvalidCredentials is returned on a failed email/password check.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service manages sender account lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new user with a hashed password.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, errors.New("a valid email is required")
	}
	if len(creds.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}
	if strings.TrimSpace(creds.Name) == "" {
		return User{}, errors.New("name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(creds.Name),
		Email:            email,
		PasswordHash:     hash,
		SelectedCurrency: defaultCurrency,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies email/password credentials.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Profile fetches a user by ID.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies a partial update to the user record.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (User, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return User{}, errors.New("name cannot be empty")
	}
	return s.repo.UpdateProfile(ctx, id, update)
}

// IssueLoginPlaceholder mints a short-lived one-shot handle used to complete
// a federated sign-in from the browser redirect.
func (s *Service) IssueLoginPlaceholder(ctx context.Context, userID uuid.UUID) (LoginPlaceholder, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return LoginPlaceholder{}, err
	}
	p := LoginPlaceholder{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(placeholderTTL),
	}
	if err := s.repo.CreatePlaceholder(ctx, p); err != nil {
		return LoginPlaceholder{}, err
	}
	return p, nil
}

// ResolveLoginPlaceholder consumes the placeholder and returns its user.
// A placeholder resolves at most once.
func (s *Service) ResolveLoginPlaceholder(ctx context.Context, id uuid.UUID) (User, error) {
	userID, err := s.repo.ConsumePlaceholder(ctx, id)
	if err != nil {
		return User{}, err
	}
	return s.repo.FindByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
