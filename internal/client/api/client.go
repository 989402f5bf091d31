// Package api is the HTTP client for the hosted remittance API. It attaches
// the bearer token from a TokenProvider, transparently renews it once on a
// 401 via a single shared refresh flight, and maps failures onto the Kind
// taxonomy in error.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/generate_new_access_token"

	defaultTimeout = 30 * time.Second
)

// TokenProvider supplies the bearer token and accepts renewed ones. Token
// blocks until the backing store has hydrated.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	StoreToken(token string)
}

// Client talks to the remittance API. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	logger  *slog.Logger

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

type refreshOutcome struct {
	token string
	err   error
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport. The refresh cookie lives in
// the client's jar, so the replacement should carry one too.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a Client for the given base URL. The cookie jar holds the
// HTTP-only refresh token cookie set by the auth endpoints.
func New(baseURL string, tokens TokenProvider, logger *slog.Logger, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout, Jar: jar},
		tokens:  tokens,
		logger:  logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Message string          `json:"message"`
}

// do performs one API call. The request body is marshalled up front so the
// call can be replayed after a token refresh. allowRefresh is false only for
// the auth endpoints, where a 401 is an answer, not a stale token.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, allowRefresh bool) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("await session: %w", err)
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	// The same key is reused on the post-refresh replay so the server
	// deduplicates rather than double-applies.
	var idemKey string
	if method != http.MethodGet && method != http.MethodHead {
		idemKey = uuid.NewString()
	}

	status, data, err := c.send(ctx, method, path, query, payload, token, idemKey)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && allowRefresh {
		newToken, rerr := c.refresh(ctx)
		if rerr != nil {
			return rerr
		}
		status, data, err = c.send(ctx, method, path, query, payload, newToken, idemKey)
		if err != nil {
			return err
		}
		// One retry only. A second 401 falls through to classification.
	}

	if status < 200 || status >= 300 {
		return classifyStatus(status, data, path == loginPath)
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &Error{Kind: KindServer, Status: status, Message: "malformed response body"}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, Status: status, Message: "malformed response data"}
	}
	return nil
}

// send executes a single HTTP exchange and slurps the body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token, idemKey string) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyTransport(err)
	}
	return resp.StatusCode, data, nil
}

// refresh renews the access token. Concurrent callers share one flight: the
// first caller performs the exchange, the rest queue and receive its outcome.
func (c *Client) refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshOutcome, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()
		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	token, err := c.exchangeRefreshToken(ctx)
	if err == nil {
		c.tokens.StoreToken(token)
	} else {
		c.logger.Debug("token refresh failed", "error", err)
	}

	c.mu.Lock()
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshOutcome{token: token, err: err}
	}
	return token, err
}

// exchangeRefreshToken posts the refresh cookie for a new access token.
func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	status, data, err := c.send(ctx, http.MethodPost, refreshPath, nil, nil, "", "")
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized {
		return "", &Error{Kind: KindUnauthorized, Status: status, Message: "session expired, sign in again"}
	}
	if status < 200 || status >= 300 {
		return "", classifyStatus(status, data, false)
	}

	var env envelope
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", &Error{Kind: KindServer, Status: status, Message: "malformed refresh response"}
	}
	if err := json.Unmarshal(env.Data, &out); err != nil || out.AccessToken == "" {
		return "", &Error{Kind: KindServer, Status: status, Message: "refresh response missing token"}
	}
	return out.AccessToken, nil
}

func classifyStatus(status int, body []byte, loginAttempt bool) error {
	var env envelope
	_ = json.Unmarshal(body, &env)
	msg := env.Message
	if msg == "" && len(env.Errors) > 0 {
		msg = env.Errors[0]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	apiErr := &Error{Status: status, Message: msg, Details: env.Errors}
	switch {
	case status == http.StatusUnauthorized && loginAttempt:
		apiErr.Kind = KindCredential
	case status == http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
	case status == http.StatusConflict:
		apiErr.Kind = KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		apiErr.Kind = KindValidation
	case status >= 500:
		apiErr.Kind = KindServer
	default:
		apiErr.Kind = KindUnknown
	}
	return apiErr
}

func classifyTransport(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Kind: KindTimeout, Message: err.Error()}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimeout, Message: err.Error()}
	default:
		return &Error{Kind: KindTransient, Message: err.Error()}
	}
}

// User mirrors the server's user payload.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	DoneOnboarding   bool   `json:"done_onboarding"`
	SelectedCurrency string `json:"selected_currency"`
}

// Session is the result of a login or federated exchange.
type Session struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Recipient mirrors the server's recipient payload. SeqID is the feed cursor.
type Recipient struct {
	ID            string `json:"id"`
	SeqID         int64  `json:"seq_id"`
	Method        string `json:"method"`
	FullName      string `json:"full_name"`
	MomoNumber    string `json:"momo_number"`
	NetworkCode   string `json:"network_code"`
	NetworkName   string `json:"network_name"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
}

// AddRecipientInput is the create-recipient request body.
type AddRecipientInput struct {
	DeliveryMethod string `json:"deliveryMethod"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Bank           string `json:"bank"`
	Account        string `json:"account"`
	NetworkCode    string `json:"networkCode"`
	NetworkName    string `json:"networkName"`
}

// NetworkOption is a mobile money network choice.
type NetworkOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SubmitTransferInput is the record-transfer request body.
type SubmitTransferInput struct {
	RecipientID   string `json:"recipientId"`
	Method        string `json:"method"`
	AmountCents   int64  `json:"amountCents"`
	PaymentMethod string `json:"paymentMethod"`
	Reference     string `json:"reference"`
}

// Transfer mirrors the server's transfer payload.
type Transfer struct {
	ID                   string  `json:"id"`
	RecipientID          string  `json:"recipient_id"`
	Method               string  `json:"method"`
	Reference            string  `json:"reference"`
	PaymentMethod        string  `json:"payment_method"`
	AmountCents          int64   `json:"amount_cents"`
	FeeCents             int64   `json:"fee_cents"`
	TotalCents           int64   `json:"total_cents"`
	Rate                 float64 `json:"rate"`
	RecipientAmountMinor int64   `json:"recipient_amount_minor"`
	Status               string  `json:"status"`
	CreatedAt            string  `json:"created_at"`
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &out, false); err != nil {
		return Session{}, err
	}
	return out, nil
}

// Login exchanges credentials for a session. A 401 maps to KindCredential
// and never triggers a refresh.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	var out Session
	if err := c.do(ctx, http.MethodPost, loginPath, nil, body, &out, false); err != nil {
		return Session{}, err
	}
	return out, nil
}

// FederatedSession resolves a one-shot login placeholder into a session.
func (c *Client) FederatedSession(ctx context.Context, placeholderID string) (Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodGet, "/auth/me/"+url.PathEscape(placeholderID), nil, nil, &out, false); err != nil {
		return Session{}, err
	}
	return out, nil
}

// AddRecipient creates a recipient.
func (c *Client) AddRecipient(ctx context.Context, input AddRecipientInput) (Recipient, error) {
	var out Recipient
	if err := c.do(ctx, http.MethodPost, "/recipients/add-raw", nil, input, &out, true); err != nil {
		return Recipient{}, err
	}
	return out, nil
}

// ListRecipients fetches one page of recipients after the given cursor.
// An empty slice means the feed is exhausted.
func (c *Client) ListRecipients(ctx context.Context, method string, lastID int64, limit int) ([]Recipient, error) {
	q := url.Values{}
	q.Set("method", method)
	if lastID > 0 {
		q.Set("lastId", strconv.FormatInt(lastID, 10))
	}
	q.Set("limit", strconv.Itoa(limit))

	out := []Recipient{}
	if err := c.do(ctx, http.MethodGet, "/recipients/raw", q, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// MomoNetworks lists the supported mobile money networks.
func (c *Client) MomoNetworks(ctx context.Context) ([]NetworkOption, error) {
	out := []NetworkOption{}
	if err := c.do(ctx, http.MethodGet, "/recipients/get_bank_options", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitTransfer records a confirmed transfer.
func (c *Client) SubmitTransfer(ctx context.Context, input SubmitTransferInput) (Transfer, error) {
	var out Transfer
	if err := c.do(ctx, http.MethodPost, "/transfers", nil, input, &out, true); err != nil {
		return Transfer{}, err
	}
	return out, nil
}

// Transfers lists the caller's transfer history, newest first.
func (c *Client) Transfers(ctx context.Context, limit int) ([]Transfer, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	out := []Transfer{}
	if err := c.do(ctx, http.MethodGet, "/transfers", q, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}
