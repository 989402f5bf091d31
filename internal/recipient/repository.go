package recipient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate indicates the owner already saved a recipient with the same
// delivery method and identifier.
var ErrDuplicate = errors.New("recipient already exists")

// Repository persists recipients. Recipients are never updated or deleted.
type Repository interface {
	Create(ctx context.Context, r Recipient) (Recipient, error)
	ListAfter(ctx context.Context, ownerID uuid.UUID, method DeliveryMethod, lastSeqID int64, limit int) ([]Recipient, error)
}

// PostgresRepository implements Repository using PostgreSQL. seq_id is a
// bigserial column, so insertion order defines the cursor order.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed recipient repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a recipient and returns it with its assigned seq_id.
func (r *PostgresRepository) Create(ctx context.Context, rec Recipient) (Recipient, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO recipients
            (id, owner_id, method, full_name, momo_number, network_code, network_name, bank_name, account_number, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (owner_id, method, momo_number, bank_name, account_number) DO NOTHING
        RETURNING seq_id`,
		rec.ID, rec.OwnerID, rec.Method, rec.FullName, rec.MomoNumber,
		rec.NetworkCode, rec.NetworkName, rec.BankName, rec.AccountNumber, rec.CreatedAt.UTC())
	if err := row.Scan(&rec.SeqID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Recipient{}, ErrDuplicate
		}
		return Recipient{}, err
	}
	return rec, nil
}

// ListAfter returns up to limit recipients with seq_id greater than
// lastSeqID, filtered by owner and delivery method, in cursor order.
func (r *PostgresRepository) ListAfter(ctx context.Context, ownerID uuid.UUID, method DeliveryMethod, lastSeqID int64, limit int) ([]Recipient, error) {
	rows, err := r.db.Query(ctx, `SELECT id, seq_id, owner_id, method, full_name, momo_number, network_code, network_name, bank_name, account_number, created_at
        FROM recipients
        WHERE owner_id = $1 AND method = $2 AND seq_id > $3
        ORDER BY seq_id
        LIMIT $4`, ownerID, method, lastSeqID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var (
			rec       Recipient
			createdAt time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.SeqID, &rec.OwnerID, &rec.Method, &rec.FullName,
			&rec.MomoNumber, &rec.NetworkCode, &rec.NetworkName, &rec.BankName, &rec.AccountNumber, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = createdAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
