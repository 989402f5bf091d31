package recipient

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	nextSeq int64
	items   []Recipient
}

// NewMemoryRepository builds an in-memory recipient store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, rec Recipient) (Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.OwnerID == rec.OwnerID && existing.Method == rec.Method && existing.Identifier() == rec.Identifier() {
			return Recipient{}, ErrDuplicate
		}
	}
	r.nextSeq++
	rec.SeqID = r.nextSeq
	r.items = append(r.items, rec)
	return rec, nil
}

func (r *memoryRepository) ListAfter(_ context.Context, ownerID uuid.UUID, method DeliveryMethod, lastSeqID int64, limit int) ([]Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Recipient
	for _, rec := range r.items {
		if rec.OwnerID != ownerID || rec.Method != method || rec.SeqID <= lastSeqID {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
