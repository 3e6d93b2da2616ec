package teams

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
	"github.com/taskhive/taskhive/internal/users"
	"github.com/taskhive/taskhive/internal/validation"
)

var (
	// ErrNotFound is returned when a team does not exist
	ErrNotFound = errors.New("team not found")

	// ErrNameTaken is returned when a team name already exists
	ErrNameTaken = errors.New("team name already exists")
)

// Store provides team and membership persistence.
type Store interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*Team, error)
	Delete(ctx context.Context, id uuid.UUID) error

	UpsertMembership(ctx context.Context, m *Membership) error
	DeleteMemberships(ctx context.Context, teamID uuid.UUID) error
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	IsMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (bool, error)
	MemberRole(ctx context.Context, teamID, userID uuid.UUID) (users.Role, bool, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]MemberInfo, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page validation.PageParams) ([]TeamWithCounts, int, error)
}

type pgxStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a pgx-backed team store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

const teamColumns = `id, name, lead_id, created_by, created_at, updated_at`

func scanTeam(row pgx.Row) (*Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.LeadID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return &t, nil
}

func (s *pgxStore) Create(ctx context.Context, team *Team) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	err := e.QueryRow(ctx, `
		INSERT INTO teams (name, lead_id, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, team.Name, team.LeadID, team.CreatedBy).Scan(
		&team.ID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrNameTaken
		}
		return fmt.Errorf("failed to create team: %w", err)
	}

	return nil
}

func (s *pgxStore) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	e := db.ExecutorFromContext(ctx, s.pool)
	return scanTeam(e.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
}

func (s *pgxStore) UpdateName(ctx context.Context, id uuid.UUID, name string) (*Team, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	team, err := scanTeam(e.QueryRow(ctx, `
		UPDATE teams
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+teamColumns+`
	`, id, name))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	return team, nil
}

// Delete removes the team and everything it owns. Pivot rows are detached
// explicitly before the owning records go away rather than relying on
// cascades alone.
func (s *pgxStore) Delete(ctx context.Context, id uuid.UUID) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	steps := []string{
		`DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM tasks WHERE team_id = $1)`,
		`DELETE FROM task_comments WHERE task_id IN (SELECT id FROM tasks WHERE team_id = $1)`,
		`DELETE FROM tasks WHERE team_id = $1`,
		`DELETE FROM invites WHERE team_id = $1`,
		`DELETE FROM team_memberships WHERE team_id = $1`,
	}
	for _, step := range steps {
		if _, err := e.Exec(ctx, step, id); err != nil {
			return fmt.Errorf("failed to detach team relations: %w", err)
		}
	}

	tag, err := e.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpsertMembership adds a user to a team, updating the role and joined_at if
// the membership already exists. The (team, user) pair stays unique.
func (s *pgxStore) UpsertMembership(ctx context.Context, m *Membership) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}

	_, err := e.Exec(ctx, `
		INSERT INTO team_memberships (team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, joined_at = EXCLUDED.joined_at
	`, m.TeamID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}

	return nil
}

func (s *pgxStore) DeleteMemberships(ctx context.Context, teamID uuid.UUID) error {
	e := db.ExecutorFromContext(ctx, s.pool)
	if _, err := e.Exec(ctx, `DELETE FROM team_memberships WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	return nil
}

func (s *pgxStore) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	var exists bool
	err := e.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM team_memberships WHERE team_id = $1 AND user_id = $2
		)
	`, teamID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

func (s *pgxStore) IsMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (bool, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	var exists bool
	err := e.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM team_memberships m
			INNER JOIN users u ON u.id = m.user_id
			WHERE m.team_id = $1 AND u.email = $2
		)
	`, teamID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership by email: %w", err)
	}

	return exists, nil
}

func (s *pgxStore) MemberRole(ctx context.Context, teamID, userID uuid.UUID) (users.Role, bool, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	var role users.Role
	err := e.QueryRow(ctx, `
		SELECT role FROM team_memberships WHERE team_id = $1 AND user_id = $2
	`, teamID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get member role: %w", err)
	}

	return role, true, nil
}

func (s *pgxStore) ListMembers(ctx context.Context, teamID uuid.UUID) ([]MemberInfo, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	rows, err := e.Query(ctx, `
		SELECT m.user_id, u.name, u.email, m.role, m.joined_at
		FROM team_memberships m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []MemberInfo
	for rows.Next() {
		var member MemberInfo
		if err := rows.Scan(&member.UserID, &member.Name, &member.Email, &member.Role, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

func (s *pgxStore) ListForUser(ctx context.Context, userID uuid.UUID, page validation.PageParams) ([]TeamWithCounts, int, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	var total int
	err := e.QueryRow(ctx, `
		SELECT COUNT(*) FROM team_memberships WHERE user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count user teams: %w", err)
	}

	rows, err := e.Query(ctx, `
		SELECT t.id, t.name, t.lead_id, t.created_by, t.created_at, t.updated_at,
		       (SELECT COUNT(*) FROM team_memberships WHERE team_id = t.id) AS member_count,
		       (SELECT COUNT(*) FROM tasks WHERE team_id = t.id) AS task_count
		FROM teams t
		INNER JOIN team_memberships m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user teams: %w", err)
	}
	defer rows.Close()

	var teams []TeamWithCounts
	for rows.Next() {
		var t TeamWithCounts
		err := rows.Scan(&t.ID, &t.Name, &t.LeadID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.MemberCount, &t.TaskCount)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating team rows: %w", err)
	}

	return teams, total, nil
}
