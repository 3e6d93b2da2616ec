package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhive/taskhive/internal/db"
	"github.com/taskhive/taskhive/internal/validation"
)

// ErrNotFound is returned when a task does not exist
var ErrNotFound = errors.New("task not found")

// Store provides task and assignment persistence.
type Store interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID, assignedAt time.Time) error
	RemoveAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	RemoveAllAssignees(ctx context.Context, taskID uuid.UUID) error
	ListAssignees(ctx context.Context, taskID uuid.UUID) ([]AssigneeInfo, error)
	IsAssignee(ctx context.Context, taskID, userID uuid.UUID) (bool, error)

	ListForTeam(ctx context.Context, teamID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error)
	ListForAssignee(ctx context.Context, userID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error)
	Statistics(ctx context.Context, teamID uuid.UUID) (*Statistics, error)
}

type pgxStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a pgx-backed task store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

const taskColumns = `id, team_id, title, COALESCE(description, ''), status, priority, due_date, assigned_by, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.TeamID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.AssignedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return &t, nil
}

func (s *pgxStore) Create(ctx context.Context, task *Task) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	err := e.QueryRow(ctx, `
		INSERT INTO tasks (team_id, title, description, status, priority, due_date, assigned_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, task.TeamID, task.Title, task.Description, task.Status, task.Priority, task.DueDate, task.AssignedBy).Scan(
		&task.ID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (s *pgxStore) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	e := db.ExecutorFromContext(ctx, s.pool)
	return scanTask(e.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (s *pgxStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Task, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if patch.Title != nil {
		appendSet("title", *patch.Title)
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.Status != nil {
		appendSet("status", *patch.Status)
	}
	if patch.Priority != nil {
		appendSet("priority", *patch.Priority)
	}
	if patch.DueDate != nil {
		appendSet("due_date", *patch.DueDate)
	} else if patch.ClearDue {
		sets = append(sets, "due_date = NULL")
	}

	query := `
		UPDATE tasks
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1
		RETURNING ` + taskColumns

	return scanTask(e.QueryRow(ctx, query, args...))
}

// Delete detaches assignees and comments before removing the task row, all
// through the caller's transaction.
func (s *pgxStore) Delete(ctx context.Context, id uuid.UUID) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	if _, err := e.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach assignees: %w", err)
	}
	if _, err := e.Exec(ctx, `DELETE FROM task_comments WHERE task_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}

	tag, err := e.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddAssignees attaches users without detaching existing assignees.
// Re-assigning an already-assigned user is a no-op for that user.
func (s *pgxStore) AddAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID, assignedAt time.Time) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	for _, userID := range userIDs {
		_, err := e.Exec(ctx, `
			INSERT INTO task_assignees (id, task_id, user_id, assigned_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (task_id, user_id) DO NOTHING
		`, uuid.New(), taskID, userID, assignedAt)
		if err != nil {
			return fmt.Errorf("failed to assign user: %w", err)
		}
	}

	return nil
}

func (s *pgxStore) RemoveAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	e := db.ExecutorFromContext(ctx, s.pool)

	if _, err := e.Exec(ctx, `
		DELETE FROM task_assignees WHERE task_id = $1 AND user_id = ANY($2)
	`, taskID, userIDs); err != nil {
		return fmt.Errorf("failed to remove assignees: %w", err)
	}

	return nil
}

func (s *pgxStore) RemoveAllAssignees(ctx context.Context, taskID uuid.UUID) error {
	e := db.ExecutorFromContext(ctx, s.pool)
	if _, err := e.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to remove assignees: %w", err)
	}
	return nil
}

func (s *pgxStore) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]AssigneeInfo, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	rows, err := e.Query(ctx, `
		SELECT a.id, a.user_id, u.name, u.email, a.assigned_at
		FROM task_assignees a
		INNER JOIN users u ON u.id = a.user_id
		WHERE a.task_id = $1
		ORDER BY a.assigned_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	defer rows.Close()

	var assignees []AssigneeInfo
	for rows.Next() {
		var a AssigneeInfo
		if err := rows.Scan(&a.AssignmentID, &a.UserID, &a.Name, &a.Email, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		assignees = append(assignees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignee rows: %w", err)
	}

	return assignees, nil
}

func (s *pgxStore) IsAssignee(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	var exists bool
	err := e.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM task_assignees WHERE task_id = $1 AND user_id = $2
		)
	`, taskID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}

	return exists, nil
}

// filterClauses builds the WHERE fragments shared by the listing queries.
func filterClauses(filters Filters, args *[]any) []string {
	var clauses []string

	appendClause := func(clause string, value any) {
		*args = append(*args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(*args)))
	}

	if filters.Status != nil {
		appendClause("t.status = $%d", *filters.Status)
	}
	if filters.Priority != nil {
		appendClause("t.priority = $%d", *filters.Priority)
	}
	if filters.AssignedTo != nil {
		appendClause("EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = $%d)", *filters.AssignedTo)
	}
	if filters.AssignedBy != nil {
		appendClause("t.assigned_by = $%d", *filters.AssignedBy)
	}
	if filters.TeamID != nil {
		appendClause("t.team_id = $%d", *filters.TeamID)
	}
	if filters.Overdue {
		clauses = append(clauses, "t.due_date < NOW()", "t.status != 'completed'")
	}
	if filters.DueSoon {
		clauses = append(clauses, "t.due_date BETWEEN NOW() AND NOW() + INTERVAL '7 days'", "t.status != 'completed'")
	}

	return clauses
}

func (s *pgxStore) listTasks(ctx context.Context, baseClause string, baseArgs []any, filters Filters, page validation.PageParams) ([]Task, int, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	args := baseArgs
	clauses := append([]string{baseClause}, filterClauses(filters, &args)...)
	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks t WHERE ` + where
	if err := e.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	args = append(args, page.PerPage, page.Offset())
	listQuery := fmt.Sprintf(`
		SELECT t.id, t.team_id, t.title, COALESCE(t.description, ''), t.status, t.priority,
		       t.due_date, t.assigned_by, t.created_at, t.updated_at
		FROM tasks t
		WHERE %s
		ORDER BY t.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := e.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		err := rows.Scan(&t.ID, &t.TeamID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.AssignedBy, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, total, nil
}

func (s *pgxStore) ListForTeam(ctx context.Context, teamID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error) {
	return s.listTasks(ctx, "t.team_id = $1", []any{teamID}, filters, page)
}

func (s *pgxStore) ListForAssignee(ctx context.Context, userID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error) {
	base := "EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = $1)"
	return s.listTasks(ctx, base, []any{userID}, filters, page)
}

func (s *pgxStore) Statistics(ctx context.Context, teamID uuid.UUID) (*Statistics, error) {
	e := db.ExecutorFromContext(ctx, s.pool)

	var stats Statistics
	err := e.QueryRow(ctx, `
		SELECT
		  COUNT(*),
		  COUNT(*) FILTER (WHERE status = 'pending'),
		  COUNT(*) FILTER (WHERE status = 'in_progress'),
		  COUNT(*) FILTER (WHERE status = 'completed'),
		  COUNT(*) FILTER (WHERE due_date < NOW() AND status != 'completed'),
		  COUNT(*) FILTER (WHERE priority = 'high')
		FROM tasks
		WHERE team_id = $1
	`, teamID).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.InProgress,
		&stats.Completed,
		&stats.Overdue,
		&stats.HighPriority,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load task statistics: %w", err)
	}

	return &stats, nil
}
