package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested user or placeholder does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken indicates a sign-up collides with an existing account.
var ErrEmailTaken = errors.New("email already registered")

// Repository persists users and federated login placeholders.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (User, error)
	CreatePlaceholder(ctx context.Context, p LoginPlaceholder) error
	ConsumePlaceholder(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, name, email, password_hash, done_onboarding, selected_currency, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.DoneOnboarding, user.SelectedCurrency, user.CreatedAt.UTC())
	return err
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, password_hash, done_onboarding, selected_currency, created_at
        FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by primary key.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, password_hash, done_onboarding, selected_currency, created_at
        FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdateProfile applies a partial profile update and returns the new state.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (User, error) {
	row := r.db.QueryRow(ctx, `UPDATE users SET
            name = COALESCE($2, name),
            done_onboarding = COALESCE($3, done_onboarding),
            selected_currency = COALESCE($4, selected_currency)
        WHERE id = $1
        RETURNING id, name, email, password_hash, done_onboarding, selected_currency, created_at`,
		id, update.Name, update.DoneOnboarding, update.SelectedCurrency)
	return scanUser(row)
}

// CreatePlaceholder stores a one-shot federated login handle.
func (r *PostgresRepository) CreatePlaceholder(ctx context.Context, p LoginPlaceholder) error {
	_, err := r.db.Exec(ctx, `INSERT INTO login_placeholders (id, user_id, expires_at) VALUES ($1, $2, $3)`,
		p.ID, p.UserID, p.ExpiresAt.UTC())
	return err
}

// ConsumePlaceholder atomically deletes the placeholder and returns its user.
// Expired or already-consumed placeholders report ErrNotFound.
func (r *PostgresRepository) ConsumePlaceholder(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM login_placeholders
        WHERE id = $1 AND expires_at > $2 RETURNING user_id`, id, time.Now().UTC())
	var userID uuid.UUID
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	return userID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		user      User
		createdAt time.Time
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.DoneOnboarding, &user.SelectedCurrency, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
