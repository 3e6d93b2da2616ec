// Package authz answers "may this actor perform this action on this
// resource?" as side-effect-free predicates over the membership graph.
//
// Policy notes, resolving the ambiguities left by earlier iterations of the
// rules: any authenticated user may create a team; only a global admin may
// delete one. Every "team lead" check means Team.LeadID — the team-scoped
// membership role named "lead" does not grant lead powers.
package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/users"
)

// Actor is the authenticated user a decision is made for.
type Actor struct {
	ID   uuid.UUID
	Role users.Role
}

// TeamRef carries the team facts the engine needs.
type TeamRef struct {
	ID     uuid.UUID
	LeadID uuid.UUID
}

// TaskRef carries the task facts the engine needs.
type TaskRef struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	TeamLeadID uuid.UUID
	AssignedBy uuid.UUID
}

// MembershipReader looks up current team membership. Checks re-query state on
// every call; the engine holds no cache.
type MembershipReader interface {
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}

// AssigneeReader looks up task assignment.
type AssigneeReader interface {
	IsAssignee(ctx context.Context, taskID, userID uuid.UUID) (bool, error)
}

// Engine evaluates authorization decisions. Construct it with the readers it
// needs; there is no global registration.
type Engine struct {
	memberships MembershipReader
	assignees   AssigneeReader
}

// NewEngine creates an authorization engine.
func NewEngine(memberships MembershipReader, assignees AssigneeReader) *Engine {
	return &Engine{memberships: memberships, assignees: assignees}
}

// Resource is the target of a decision: a TeamRef, a TaskRef, or nil for
// actions without a target.
type Resource any

// Allows dispatches to the decision function for the action. The bool is the
// decision; a non-nil error only ever means a storage lookup failed, never a
// policy denial.
func (e *Engine) Allows(ctx context.Context, actor Actor, action Action, resource Resource) (bool, error) {
	switch action {
	case ActionCreateTeam:
		return e.CanCreateTeam(actor), nil
	case ActionViewTeamList:
		return e.CanViewTeamList(actor), nil
	case ActionViewTeam:
		team, err := teamRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanViewTeam(ctx, actor, team)
	case ActionUpdateTeam:
		team, err := teamRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanUpdateTeam(actor, team), nil
	case ActionDeleteTeam:
		if _, err := teamRef(resource); err != nil {
			return false, err
		}
		return e.CanDeleteTeam(actor), nil
	case ActionCreateTask:
		team, err := teamRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanCreateTask(ctx, actor, team)
	case ActionViewTask:
		task, err := taskRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanViewTask(ctx, actor, task)
	case ActionUpdateTask:
		task, err := taskRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanUpdateTask(actor, task), nil
	case ActionUpdateTaskStatus:
		task, err := taskRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanUpdateTaskStatus(ctx, actor, task)
	case ActionDeleteTask:
		task, err := taskRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanDeleteTask(actor, task), nil
	case ActionManageTaskAssignees:
		task, err := taskRef(resource)
		if err != nil {
			return false, err
		}
		return e.CanManageTaskAssignees(actor, task), nil
	}
	return false, fmt.Errorf("unknown action: %d", action)
}

// CanCreateTeam: any authenticated user may create a team.
func (e *Engine) CanCreateTeam(actor Actor) bool {
	return true
}

// CanViewTeamList: always permitted for an authenticated actor.
func (e *Engine) CanViewTeamList(actor Actor) bool {
	return true
}

// CanViewTeam: actor is a member of the team.
func (e *Engine) CanViewTeam(ctx context.Context, actor Actor, team TeamRef) (bool, error) {
	return e.memberships.IsMember(ctx, team.ID, actor.ID)
}

// CanUpdateTeam: team lead or global admin.
func (e *Engine) CanUpdateTeam(actor Actor, team TeamRef) bool {
	return actor.ID == team.LeadID || actor.Role == users.RoleAdmin
}

// CanDeleteTeam: global admin only.
func (e *Engine) CanDeleteTeam(actor Actor) bool {
	return actor.Role == users.RoleAdmin
}

// CanCreateTask: actor is a member of the target team.
func (e *Engine) CanCreateTask(ctx context.Context, actor Actor, team TeamRef) (bool, error) {
	return e.memberships.IsMember(ctx, team.ID, actor.ID)
}

// CanViewTask: team member or task assignee.
func (e *Engine) CanViewTask(ctx context.Context, actor Actor, task TaskRef) (bool, error) {
	isMember, err := e.memberships.IsMember(ctx, task.TeamID, actor.ID)
	if err != nil {
		return false, err
	}
	if isMember {
		return true, nil
	}
	return e.assignees.IsAssignee(ctx, task.ID, actor.ID)
}

// CanUpdateTask: global admin, team lead, or the task's original assigner.
func (e *Engine) CanUpdateTask(actor Actor, task TaskRef) bool {
	return actor.Role == users.RoleAdmin ||
		actor.ID == task.TeamLeadID ||
		actor.ID == task.AssignedBy
}

// CanUpdateTaskStatus: admin, team lead, an assignee, or any team member —
// the broadest of the task rules.
func (e *Engine) CanUpdateTaskStatus(ctx context.Context, actor Actor, task TaskRef) (bool, error) {
	if actor.Role == users.RoleAdmin || actor.ID == task.TeamLeadID {
		return true, nil
	}

	isAssignee, err := e.assignees.IsAssignee(ctx, task.ID, actor.ID)
	if err != nil {
		return false, err
	}
	if isAssignee {
		return true, nil
	}

	return e.memberships.IsMember(ctx, task.TeamID, actor.ID)
}

// CanDeleteTask: global admin or team lead.
func (e *Engine) CanDeleteTask(actor Actor, task TaskRef) bool {
	return actor.Role == users.RoleAdmin || actor.ID == task.TeamLeadID
}

// CanManageTaskAssignees: global admin, team lead, or the task's original
// assigner. Assignees may not remove themselves.
func (e *Engine) CanManageTaskAssignees(actor Actor, task TaskRef) bool {
	return actor.Role == users.RoleAdmin ||
		actor.ID == task.TeamLeadID ||
		actor.ID == task.AssignedBy
}

func teamRef(resource Resource) (TeamRef, error) {
	team, ok := resource.(TeamRef)
	if !ok {
		return TeamRef{}, fmt.Errorf("expected TeamRef resource, got %T", resource)
	}
	return team, nil
}

func taskRef(resource Resource) (TaskRef, error) {
	task, ok := resource.(TaskRef)
	if !ok {
		return TaskRef{}, fmt.Errorf("expected TaskRef resource, got %T", resource)
	}
	return task, nil
}
