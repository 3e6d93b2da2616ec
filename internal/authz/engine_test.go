package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/internal/users"
)

type pair struct{ a, b uuid.UUID }

type fakeMemberships struct {
	members map[pair]bool
}

func (f *fakeMemberships) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	return f.members[pair{teamID, userID}], nil
}

type fakeAssignees struct {
	assigned map[pair]bool
}

func (f *fakeAssignees) IsAssignee(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	return f.assigned[pair{taskID, userID}], nil
}

func TestEngineDecisions(t *testing.T) {
	ctx := context.Background()

	lead := Actor{ID: uuid.New(), Role: users.RoleMember}
	admin := Actor{ID: uuid.New(), Role: users.RoleAdmin}
	member := Actor{ID: uuid.New(), Role: users.RoleMember}
	assignee := Actor{ID: uuid.New(), Role: users.RoleMember}
	assigner := Actor{ID: uuid.New(), Role: users.RoleMember}
	outsider := Actor{ID: uuid.New(), Role: users.RoleMember}

	team := TeamRef{ID: uuid.New(), LeadID: lead.ID}
	task := TaskRef{
		ID:         uuid.New(),
		TeamID:     team.ID,
		TeamLeadID: lead.ID,
		AssignedBy: assigner.ID,
	}

	memberships := &fakeMemberships{members: map[pair]bool{
		{team.ID, lead.ID}:     true,
		{team.ID, member.ID}:   true,
		{team.ID, assigner.ID}: true,
	}}
	assignees := &fakeAssignees{assigned: map[pair]bool{
		{task.ID, assignee.ID}: true,
	}}

	engine := NewEngine(memberships, assignees)

	tests := []struct {
		name     string
		actor    Actor
		action   Action
		resource Resource
		want     bool
	}{
		{"anyone can create a team", outsider, ActionCreateTeam, nil, true},
		{"anyone can list teams", outsider, ActionViewTeamList, nil, true},

		{"member views team", member, ActionViewTeam, team, true},
		{"outsider cannot view team", outsider, ActionViewTeam, team, false},

		{"lead updates team", lead, ActionUpdateTeam, team, true},
		{"admin updates team", admin, ActionUpdateTeam, team, true},
		{"member cannot update team", member, ActionUpdateTeam, team, false},

		{"admin deletes team", admin, ActionDeleteTeam, team, true},
		{"lead cannot delete team", lead, ActionDeleteTeam, team, false},

		{"member creates task", member, ActionCreateTask, team, true},
		{"outsider cannot create task", outsider, ActionCreateTask, team, false},

		{"member views task", member, ActionViewTask, task, true},
		{"non-member assignee views task", assignee, ActionViewTask, task, true},
		{"outsider cannot view task", outsider, ActionViewTask, task, false},

		{"assigner updates task", assigner, ActionUpdateTask, task, true},
		{"lead updates task", lead, ActionUpdateTask, task, true},
		{"admin updates task", admin, ActionUpdateTask, task, true},
		{"plain member cannot update task", member, ActionUpdateTask, task, false},
		{"assignee cannot update task", assignee, ActionUpdateTask, task, false},

		{"plain member updates status", member, ActionUpdateTaskStatus, task, true},
		{"assignee updates status", assignee, ActionUpdateTaskStatus, task, true},
		{"outsider cannot update status", outsider, ActionUpdateTaskStatus, task, false},

		{"lead deletes task", lead, ActionDeleteTask, task, true},
		{"admin deletes task", admin, ActionDeleteTask, task, true},
		{"assigner cannot delete task", assigner, ActionDeleteTask, task, false},

		{"assigner manages assignees", assigner, ActionManageTaskAssignees, task, true},
		{"assignee cannot manage assignees", assignee, ActionManageTaskAssignees, task, false},
		{"plain member cannot manage assignees", member, ActionManageTaskAssignees, task, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Allows(ctx, tt.actor, tt.action, tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// A member whose team-scoped pivot role is "lead" still is not the team lead:
// only Team.LeadID grants lead powers.
func TestEngine_PivotRoleDoesNotGrantLead(t *testing.T) {
	lead := uuid.New()
	pivotLead := Actor{ID: uuid.New(), Role: users.RoleMember}
	team := TeamRef{ID: uuid.New(), LeadID: lead}

	engine := NewEngine(&fakeMemberships{members: map[pair]bool{
		{team.ID, pivotLead.ID}: true,
	}}, &fakeAssignees{})

	assert.False(t, engine.CanUpdateTeam(pivotLead, team))
	assert.False(t, engine.CanDeleteTask(pivotLead, TaskRef{TeamID: team.ID, TeamLeadID: lead}))
}

func TestEngine_UnknownResourceType(t *testing.T) {
	engine := NewEngine(&fakeMemberships{}, &fakeAssignees{})

	_, err := engine.Allows(context.Background(), Actor{ID: uuid.New()}, ActionViewTeam, "not-a-ref")
	assert.Error(t, err)
}
