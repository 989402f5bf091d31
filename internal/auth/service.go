package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/swiftsend/swiftsend/internal/identity"
	"github.com/swiftsend/swiftsend/internal/token"
)

// ErrInvalidRefreshToken covers missing, malformed and expired refresh tokens.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// TokenPair bundles the bearer token returned to the client with the refresh
// token that travels only in an HttpOnly cookie.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Service issues and renews token pairs for authenticated users.
type Service struct {
	ids    *identity.Service
	tokens *token.Manager
}

// NewService constructs an auth service.
func NewService(ids *identity.Service, tokens *token.Manager) *Service {
	return &Service{ids: ids, tokens: tokens}
}

// Register creates an account and signs the new user straight in.
func (s *Service) Register(ctx context.Context, creds identity.Credentials) (identity.User, TokenPair, error) {
	user, err := s.ids.Register(ctx, creds)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	pair, err := s.issue(user.ID)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Login validates credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, creds identity.Credentials) (identity.User, TokenPair, error) {
	user, err := s.ids.Authenticate(ctx, creds)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	pair, err := s.issue(user.ID)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	userID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", 0, ErrInvalidRefreshToken
	}
	if _, err := s.ids.Profile(ctx, userID); err != nil {
		return "", 0, ErrInvalidRefreshToken
	}
	access, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", 0, err
	}
	return access, int64(s.tokens.AccessTTL().Seconds()), nil
}

// ExchangePlaceholder completes a federated sign-in: the one-shot placeholder
// is consumed and a token pair is issued for its user.
func (s *Service) ExchangePlaceholder(ctx context.Context, id uuid.UUID) (identity.User, TokenPair, error) {
	user, err := s.ids.ResolveLoginPlaceholder(ctx, id)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	pair, err := s.issue(user.ID)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

func (s *Service) issue(userID uuid.UUID) (TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
