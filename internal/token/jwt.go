package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the token type alongside the subject user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"typ"`
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Manager signs and verifies access/refresh token pairs with symmetric HMAC.
type Manager struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates a token manager with the provided secret and lifetimes.
func NewManager(secretKey string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{secretKey: secretKey, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL exposes the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL exposes the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// GenerateAccessToken creates a short-lived bearer token for the user.
func (m *Manager) GenerateAccessToken(userID uuid.UUID) (string, error) {
	return m.generate(userID, typeAccess, m.accessTTL)
}

// GenerateRefreshToken creates a long-lived token used only against the
// refresh endpoint, carried in an HttpOnly cookie.
func (m *Manager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return m.generate(userID, typeRefresh, m.refreshTTL)
}

func (m *Manager) generate(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: tokenType,
	})

	signed, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseAccessToken validates an access token and returns the user ID.
func (m *Manager) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	return m.parse(tokenString, typeAccess)
}

// ParseRefreshToken validates a refresh token and returns the user ID.
func (m *Manager) ParseRefreshToken(tokenString string) (uuid.UUID, error) {
	return m.parse(tokenString, typeRefresh)
}

func (m *Manager) parse(tokenString, wantType string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse %s token: %w", wantType, err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("%s token is invalid", wantType)
	}
	if claims.TokenType != wantType {
		return uuid.Nil, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	return claims.UserID, nil
}
