package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/swiftsend/swiftsend/internal/identity"
)

const refreshCookieName = "refresh_token"

// Handler exposes the auth endpoints consumed by the client.
type Handler struct {
	svc        *Service
	refreshTTL time.Duration
	secureCookie bool
}

// NewHandler constructs an auth HTTP handler. secureCookie should be true
// everywhere except local development.
func NewHandler(svc *Service, refreshTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{svc: svc, refreshTTL: refreshTTL, secureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	DoneOnboarding   bool   `json:"done_onboarding"`
	SelectedCurrency string `json:"selected_currency"`
}

type sessionPayload struct {
	User        userPayload `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int64       `json:"expiresIn"`
}

// Register creates an account and returns a ready-to-use session.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.svc.Register(c.UserContext(), identity.Credentials{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionPayload{
		User:        toUserPayload(user),
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}})
}

// Login exchanges email/password credentials for a session. A 401 here means
// bad credentials; the client never routes it through token refresh.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.svc.Login(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": sessionPayload{
		User:        toUserPayload(user),
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}})
}

// GenerateNewAccessToken renews the bearer token from the refresh cookie.
// No Authorization header is required; the cookie is the credential.
func (h *Handler) GenerateNewAccessToken(c *fiber.Ctx) error {
	refresh := c.Cookies(refreshCookieName)
	if refresh == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing refresh token")
	}

	access, expiresIn, err := h.svc.Refresh(c.UserContext(), refresh)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"data": fiber.Map{
		"accessToken": access,
		"expiresIn":   expiresIn,
	}})
}

// Me resolves a federated-login placeholder ID into a full session. The
// placeholder resolves exactly once.
func (h *Handler) Me(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid placeholder id")
	}

	user, pair, err := h.svc.ExchangePlaceholder(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusUnauthorized, "placeholder expired or already used")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": sessionPayload{
		User:        toUserPayload(user),
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}})
}

func (h *Handler) setRefreshCookie(c *fiber.Ctx, refresh string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/auth",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func toUserPayload(user identity.User) userPayload {
	return userPayload{
		ID:               user.ID.String(),
		Name:             user.Name,
		Email:            user.Email,
		DoneOnboarding:   user.DoneOnboarding,
		SelectedCurrency: user.SelectedCurrency,
	}
}
