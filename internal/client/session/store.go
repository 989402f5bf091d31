// Package session holds the client's persisted auth state: the signed-in
// user, the bearer token, and a hydration barrier that gates every outbound
// request until persisted state has been loaded.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// User is the profile record owned by the session store.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	DoneOnboarding   bool   `json:"done_onboarding"`
	SelectedCurrency string `json:"selected_currency"`
}

// UserUpdate is a shallow partial update of the user record. Nil fields are
// left untouched.
type UserUpdate struct {
	Name             *string
	DoneOnboarding   *bool
	SelectedCurrency *string
}

type persistedState struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Store keeps the session in memory and mirrors every mutation to a JSON
// file so a restart resumes the same session.
type Store struct {
	path   string
	logger *slog.Logger

	mu              sync.RWMutex
	user            *User
	token           string
	isAuthenticated bool

	hydrated    chan struct{}
	hydrateOnce sync.Once
}

// Open creates a store bound to the given file and starts loading persisted
// state in the background. Callers gate on AwaitHydration before reading.
func Open(path string, logger *slog.Logger) *Store {
	s := NewStore(path, logger)
	go s.Hydrate()
	return s
}

// NewStore creates a store without starting hydration. Intended for tests
// that need to control when the barrier opens; production code uses Open.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger, hydrated: make(chan struct{})}
}

// Hydrate loads persisted state and opens the barrier. It runs exactly once;
// repeat calls are no-ops. A read failure counts as "no prior session".
func (s *Store) Hydrate() {
	s.hydrateOnce.Do(func() {
		var state persistedState
		data, err := os.ReadFile(s.path)
		if err == nil {
			if uerr := json.Unmarshal(data, &state); uerr != nil {
				s.logger.Warn("session file corrupt, starting fresh", "path", s.path, "error", uerr)
				state = persistedState{}
			}
		} else if !os.IsNotExist(err) {
			s.logger.Warn("session file unreadable, starting fresh", "path", s.path, "error", err)
		}

		s.mu.Lock()
		s.user = state.User
		s.token = state.Token
		// isAuthenticated must always equal token presence, whatever was on disk.
		s.isAuthenticated = state.Token != ""
		s.mu.Unlock()

		close(s.hydrated)
	})
}

// AwaitHydration blocks until persisted state has loaded. Subscribing after
// hydration completed resolves immediately.
func (s *Store) AwaitHydration(ctx context.Context) error {
	select {
	case <-s.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasHydrated reports whether the barrier has opened.
func (s *Store) HasHydrated() bool {
	select {
	case <-s.hydrated:
		return true
	default:
		return false
	}
}

// Login installs a fresh session.
func (s *Store) Login(user User, token string) {
	s.mu.Lock()
	u := user
	s.user = &u
	s.token = token
	s.isAuthenticated = token != ""
	s.mu.Unlock()
	s.persist()
}

// Logout clears the session.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.isAuthenticated = false
	s.mu.Unlock()
	s.persist()
}

// UpdateUser shallow-merges the update into the current user. It is a no-op
// when nobody is signed in.
func (s *Store) UpdateUser(update UserUpdate) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	if update.Name != nil {
		s.user.Name = *update.Name
	}
	if update.DoneOnboarding != nil {
		s.user.DoneOnboarding = *update.DoneOnboarding
	}
	if update.SelectedCurrency != nil {
		s.user.SelectedCurrency = *update.SelectedCurrency
	}
	s.mu.Unlock()
	s.persist()
}

// IsLoggedIn reports whether a usable session exists.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuthenticated && s.token != ""
}

// CurrentUser returns a copy of the signed-in user, if any.
func (s *Store) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token after the hydration barrier opens. It
// implements the API client's TokenProvider contract.
func (s *Store) Token(ctx context.Context) (string, error) {
	if err := s.AwaitHydration(ctx); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// StoreToken replaces the bearer token, keeping the signed-in user. The
// single-flight refresh in the API client is the only concurrent writer.
func (s *Store) StoreToken(token string) {
	s.mu.Lock()
	s.token = token
	s.isAuthenticated = token != ""
	s.mu.Unlock()
	s.persist()
}

// persist mirrors the session to disk. Write failures are logged, not
// surfaced: the in-memory session stays valid for this process.
func (s *Store) persist() {
	s.mu.RLock()
	state := persistedState{User: s.user, Token: s.token, IsAuthenticated: s.isAuthenticated}
	s.mu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("encode session", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warn("create session dir", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Warn("write session file", "path", s.path, "error", err)
	}
}
