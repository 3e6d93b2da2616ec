package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/db"
	"github.com/taskhive/taskhive/internal/validation"
)

// ErrAssigneeNotMember is returned when an assignee does not belong to the
// task's team. Assignment is the enforcement point for that invariant.
var ErrAssigneeNotMember = errors.New("assignee is not a member of the task's team")

// MembershipChecker reports whether a user belongs to a team.
type MembershipChecker interface {
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}

// Service orchestrates task mutations. Authorization happens at the boundary
// before any of these are called.
type Service struct {
	tx          db.Transactor
	store       Store
	memberships MembershipChecker
}

// NewService creates a task service.
func NewService(tx db.Transactor, store Store, memberships MembershipChecker) *Service {
	return &Service{tx: tx, store: store, memberships: memberships}
}

// CreateInput carries the fields for a new task.
type CreateInput struct {
	TeamID      uuid.UUID
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	AssigneeIDs []uuid.UUID
}

// Create creates a task and attaches the initial assignees in the same
// transaction. Status defaults to pending and priority to medium.
func (s *Service) Create(ctx context.Context, input CreateInput, assigner uuid.UUID) (*Task, error) {
	task := &Task{
		TeamID:      input.TeamID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssignedBy:  assigner,
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, task); err != nil {
			return err
		}

		if len(input.AssigneeIDs) == 0 {
			return nil
		}

		if err := s.requireTeamMembers(txCtx, task.TeamID, input.AssigneeIDs); err != nil {
			return err
		}
		return s.store.AddAssignees(txCtx, task.ID, input.AssigneeIDs, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("task_id", task.ID.String()).Str("team_id", task.TeamID.String()).Msg("Task created")
	return task, nil
}

// Get fetches a task by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.store.GetByID(ctx, id)
}

// GetWithAssignees fetches a task and its assignee list.
func (s *Service) GetWithAssignees(ctx context.Context, id uuid.UUID) (*Task, []AssigneeInfo, error) {
	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	assignees, err := s.store.ListAssignees(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return task, assignees, nil
}

// Assignees lists a task's assignees.
func (s *Service) Assignees(ctx context.Context, taskID uuid.UUID) ([]AssigneeInfo, error) {
	return s.store.ListAssignees(ctx, taskID)
}

// Update applies a partial update to a task.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Task, error) {
	return s.store.Update(ctx, id, patch)
}

// UpdateStatus changes only the task's status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Task, error) {
	return s.store.Update(ctx, id, Patch{Status: &status})
}

// Delete detaches assignees and removes the task in one transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.store.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Str("task_id", id.String()).Msg("Task deleted")
	return nil
}

// AssignUsers attaches users to a task without detaching existing assignees.
// Every user must belong to the task's team.
func (s *Service) AssignUsers(ctx context.Context, task *Task, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}

	return s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requireTeamMembers(txCtx, task.TeamID, userIDs); err != nil {
			return err
		}
		return s.store.AddAssignees(txCtx, task.ID, userIDs, time.Now().UTC())
	})
}

// RemoveUsers detaches the given users from a task.
func (s *Service) RemoveUsers(ctx context.Context, task *Task, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.store.RemoveAssignees(ctx, task.ID, userIDs)
}

// ReplaceAssignees swaps the full assignee set in one transaction.
func (s *Service) ReplaceAssignees(ctx context.Context, task *Task, userIDs []uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.RemoveAllAssignees(txCtx, task.ID); err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		if err := s.requireTeamMembers(txCtx, task.TeamID, userIDs); err != nil {
			return err
		}
		return s.store.AddAssignees(txCtx, task.ID, userIDs, time.Now().UTC())
	})
}

// ListForTeam lists a team's tasks with filters, newest first.
func (s *Service) ListForTeam(ctx context.Context, teamID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error) {
	return s.store.ListForTeam(ctx, teamID, filters, page)
}

// ListForAssignee lists the tasks assigned to a user across teams.
func (s *Service) ListForAssignee(ctx context.Context, userID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error) {
	return s.store.ListForAssignee(ctx, userID, filters, page)
}

// Statistics aggregates a team's task counts.
func (s *Service) Statistics(ctx context.Context, teamID uuid.UUID) (*Statistics, error) {
	return s.store.Statistics(ctx, teamID)
}

func (s *Service) requireTeamMembers(ctx context.Context, teamID uuid.UUID, userIDs []uuid.UUID) error {
	for _, userID := range userIDs {
		isMember, err := s.memberships.IsMember(ctx, teamID, userID)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrAssigneeNotMember
		}
	}
	return nil
}
