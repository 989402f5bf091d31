package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]User
	byEmail      map[string]uuid.UUID
	placeholders map[uuid.UUID]LoginPlaceholder
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:        make(map[uuid.UUID]User),
		byEmail:      make(map[string]uuid.UUID),
		placeholders: make(map[uuid.UUID]LoginPlaceholder),
	}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}
	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, id uuid.UUID, update ProfileUpdate) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.DoneOnboarding != nil {
		user.DoneOnboarding = *update.DoneOnboarding
	}
	if update.SelectedCurrency != nil {
		user.SelectedCurrency = *update.SelectedCurrency
	}
	r.users[id] = user
	return user, nil
}

func (r *memoryRepository) CreatePlaceholder(_ context.Context, p LoginPlaceholder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placeholders[p.ID] = p
	return nil
}

func (r *memoryRepository) ConsumePlaceholder(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.placeholders[id]
	if !ok || time.Now().After(p.ExpiresAt) {
		delete(r.placeholders, id)
		return uuid.Nil, ErrNotFound
	}
	delete(r.placeholders, id)
	return p.UserID, nil
}
