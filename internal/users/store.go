package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhive/taskhive/internal/db"
)

var (
	// ErrNotFound is returned when a user does not exist
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("email address already registered")
)

// Store provides user persistence.
type Store interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type pgxStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a pgx-backed user store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (s *pgxStore) Create(ctx context.Context, user *User) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	err := e.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.Name, user.Email, user.PasswordHash, user.Role).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *pgxStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	e := db.ExecutorFromContext(ctx, s.pool)
	return scanUser(e.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *pgxStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	e := db.ExecutorFromContext(ctx, s.pool)
	return scanUser(e.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}
