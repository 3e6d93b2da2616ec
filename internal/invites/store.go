package invites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhive/taskhive/internal/db"
)

var (
	// ErrNotFound is returned when an invite does not exist
	ErrNotFound = errors.New("invite not found")

	// ErrDuplicatePending is returned when the team already has a pending
	// invite for the email. Backed by a partial unique index, so concurrent
	// sends cannot slip past the service-level check.
	ErrDuplicatePending = errors.New("pending invite already exists for this email")

	// ErrTokenCollision is returned when a generated token already exists.
	// Callers retry with a fresh token.
	ErrTokenCollision = errors.New("invite token collision")

	// ErrNotPending is returned when a state transition targets an invite
	// that already left the pending state.
	ErrNotPending = errors.New("invite is not pending")
)

// Store provides invite persistence. Transition methods guard on
// status = 'pending' so terminal states stay absorbing even under races.
type Store interface {
	Create(ctx context.Context, invite *Invite) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invite, error)
	GetPendingByToken(ctx context.Context, token string) (*Invite, error)
	HasPending(ctx context.Context, teamID uuid.UUID, email string) (bool, error)

	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkExpired(ctx context.Context, id uuid.UUID) error
	MarkRevoked(ctx context.Context, id uuid.UUID) error

	ListForTeam(ctx context.Context, teamID uuid.UUID, status *Status) ([]Invite, error)
	ListPendingForEmail(ctx context.Context, email string) ([]Invite, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type pgxStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a pgx-backed invite store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

const inviteColumns = `id, team_id, email, role, status, token, invited_by, expires_at, accepted_at, created_at`

func scanInvite(row pgx.Row) (*Invite, error) {
	var i Invite
	err := row.Scan(&i.ID, &i.TeamID, &i.Email, &i.Role, &i.Status, &i.Token, &i.InvitedBy, &i.ExpiresAt, &i.AcceptedAt, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan invite: %w", err)
	}
	return &i, nil
}

func (s *pgxStore) Create(ctx context.Context, invite *Invite) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	err := e.QueryRow(ctx, `
		INSERT INTO invites (team_id, email, role, status, token, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, invite.TeamID, invite.Email, invite.Role, StatusPending, invite.Token, invite.InvitedBy, invite.ExpiresAt).Scan(
		&invite.ID,
		&invite.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			if pgErr.ConstraintName == "invites_token_key" {
				return ErrTokenCollision
			}
			return ErrDuplicatePending
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}

	invite.Status = StatusPending
	return nil
}

func (s *pgxStore) GetByID(ctx context.Context, id uuid.UUID) (*Invite, error) {
	e := db.ExecutorFromContext(ctx, s.pool)
	return scanInvite(e.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id))
}

func (s *pgxStore) GetPendingByToken(ctx context.Context, token string) (*Invite, error) {
	e := db.ExecutorFromContext(ctx, s.pool)
	return scanInvite(e.QueryRow(ctx, `
		SELECT `+inviteColumns+`
		FROM invites
		WHERE token = $1 AND status = 'pending'
	`, token))
}

func (s *pgxStore) HasPending(ctx context.Context, teamID uuid.UUID, email string) (bool, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	var exists bool
	err := e.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invites
			WHERE team_id = $1 AND email = $2 AND status = 'pending'
		)
	`, teamID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending invite: %w", err)
	}

	return exists, nil
}

func (s *pgxStore) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.transition(ctx, id, `
		UPDATE invites
		SET status = 'accepted', accepted_at = $2
		WHERE id = $1 AND status = 'pending'
	`, at)
}

func (s *pgxStore) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, `
		UPDATE invites
		SET status = 'expired'
		WHERE id = $1 AND status = 'pending'
	`)
}

func (s *pgxStore) MarkRevoked(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, `
		UPDATE invites
		SET status = 'revoked'
		WHERE id = $1 AND status = 'pending'
	`)
}

func (s *pgxStore) transition(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	tag, err := e.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update invite status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}

	return nil
}

func (s *pgxStore) ListForTeam(ctx context.Context, teamID uuid.UUID, status *Status) ([]Invite, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	query := `SELECT ` + inviteColumns + ` FROM invites WHERE team_id = $1`
	args := []any{teamID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := e.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list team invites: %w", err)
	}
	defer rows.Close()

	return collectInvites(rows)
}

// ListPendingForEmail returns the invites a user could accept right now:
// pending and not yet past their deadline.
func (s *pgxStore) ListPendingForEmail(ctx context.Context, email string) ([]Invite, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	rows, err := e.Query(ctx, `
		SELECT `+inviteColumns+`
		FROM invites
		WHERE email = $1 AND status = 'pending' AND expires_at > NOW()
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invites: %w", err)
	}
	defer rows.Close()

	return collectInvites(rows)
}

// ExpireDue flips every overdue pending invite to expired and returns how many
// rows changed.
func (s *pgxStore) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	tag, err := e.Exec(ctx, `
		UPDATE invites
		SET status = 'expired'
		WHERE status = 'pending' AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invites: %w", err)
	}

	return tag.RowsAffected(), nil
}

func collectInvites(rows pgx.Rows) ([]Invite, error) {
	var invites []Invite
	for rows.Next() {
		var i Invite
		err := rows.Scan(&i.ID, &i.TeamID, &i.Email, &i.Role, &i.Status, &i.Token, &i.InvitedBy, &i.ExpiresAt, &i.AcceptedAt, &i.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invite rows: %w", err)
	}

	return invites, nil
}
