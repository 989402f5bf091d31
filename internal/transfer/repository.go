package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists transfer records.
type Repository interface {
	Create(ctx context.Context, t Transfer) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Transfer, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed transfer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a transfer record.
func (r *PostgresRepository) Create(ctx context.Context, t Transfer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO transfers
            (id, owner_id, recipient_id, method, reference, payment_method, amount_cents, fee_cents, total_cents, rate, recipient_amount_minor, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.OwnerID, t.RecipientID, t.Method, t.Reference, t.PaymentMethod,
		t.AmountCents, t.FeeCents, t.TotalCents, t.Rate, t.RecipientAmountMinor, t.Status, t.CreatedAt.UTC())
	return err
}

// ListByOwner returns the owner's most recent transfers, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Transfer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, owner_id, recipient_id, method, reference, payment_method, amount_cents, fee_cents, total_cents, rate, recipient_amount_minor, status, created_at
        FROM transfers WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var (
			t         Transfer
			createdAt time.Time
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.RecipientID, &t.Method, &t.Reference, &t.PaymentMethod,
			&t.AmountCents, &t.FeeCents, &t.TotalCents, &t.Rate, &t.RecipientAmountMinor, &t.Status, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = createdAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

type memoryRepository struct {
	mu    sync.RWMutex
	items []Transfer
}

// NewMemoryRepository builds an in-memory transfer store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, t Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, t)
	return nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, limit int) ([]Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transfer
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		if r.items[i].OwnerID == ownerID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}
