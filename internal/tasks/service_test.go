package tasks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *MockStore, *MockMembershipChecker) {
	store := &MockStore{}
	memberships := &MockMembershipChecker{}
	return NewService(&MockTransactor{}, store, memberships), store, memberships
}

func TestCreate_Defaults(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	teamID := uuid.New()
	assigner := uuid.New()

	store.On("Create", mock.Anything, mock.MatchedBy(func(task *Task) bool {
		return task.Status == StatusPending &&
			task.Priority == PriorityMedium &&
			task.AssignedBy == assigner
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Task).ID = uuid.New()
	}).Return(nil)

	task, err := svc.Create(ctx, CreateInput{TeamID: teamID, Title: "Fix login"}, assigner)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
}

func TestCreate_WithAssignees(t *testing.T) {
	svc, store, memberships := newTestService()
	ctx := context.Background()

	teamID := uuid.New()
	taskID := uuid.New()
	assignees := []uuid.UUID{uuid.New(), uuid.New()}

	store.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*Task).ID = taskID
	}).Return(nil)
	for _, id := range assignees {
		memberships.On("IsMember", mock.Anything, teamID, id).Return(true, nil)
	}
	store.On("AddAssignees", mock.Anything, taskID, assignees, mock.AnythingOfType("time.Time")).Return(nil)

	_, err := svc.Create(ctx, CreateInput{
		TeamID:      teamID,
		Title:       "Ship release",
		AssigneeIDs: assignees,
	}, uuid.New())
	require.NoError(t, err)
	store.AssertCalled(t, "AddAssignees", mock.Anything, taskID, assignees, mock.AnythingOfType("time.Time"))
}

func TestCreate_RejectsNonMemberAssignee(t *testing.T) {
	svc, store, memberships := newTestService()
	ctx := context.Background()

	teamID := uuid.New()
	outsider := uuid.New()

	store.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*Task).ID = uuid.New()
	}).Return(nil)
	memberships.On("IsMember", mock.Anything, teamID, outsider).Return(false, nil)

	_, err := svc.Create(ctx, CreateInput{
		TeamID:      teamID,
		Title:       "Ship release",
		AssigneeIDs: []uuid.UUID{outsider},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrAssigneeNotMember)
	store.AssertNotCalled(t, "AddAssignees", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Assigning {u2, u3} on top of existing {u1, u2} must keep u1: attachment is
// additive, never a replace.
func TestAssignUsers_DoesNotDetachExisting(t *testing.T) {
	svc, store, memberships := newTestService()
	ctx := context.Background()

	task := &Task{ID: uuid.New(), TeamID: uuid.New()}
	u2, u3 := uuid.New(), uuid.New()

	memberships.On("IsMember", mock.Anything, task.TeamID, u2).Return(true, nil)
	memberships.On("IsMember", mock.Anything, task.TeamID, u3).Return(true, nil)
	store.On("AddAssignees", mock.Anything, task.ID, []uuid.UUID{u2, u3}, mock.AnythingOfType("time.Time")).Return(nil)

	err := svc.AssignUsers(ctx, task, []uuid.UUID{u2, u3})
	require.NoError(t, err)

	store.AssertNotCalled(t, "RemoveAllAssignees", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "RemoveAssignees", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignUsers_EmptyIsNoop(t *testing.T) {
	svc, store, _ := newTestService()

	err := svc.AssignUsers(context.Background(), &Task{ID: uuid.New()}, nil)
	require.NoError(t, err)
	store.AssertNotCalled(t, "AddAssignees", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReplaceAssignees_SwapsSet(t *testing.T) {
	svc, store, memberships := newTestService()
	ctx := context.Background()

	task := &Task{ID: uuid.New(), TeamID: uuid.New()}
	replacement := []uuid.UUID{uuid.New()}

	store.On("RemoveAllAssignees", mock.Anything, task.ID).Return(nil)
	memberships.On("IsMember", mock.Anything, task.TeamID, replacement[0]).Return(true, nil)
	store.On("AddAssignees", mock.Anything, task.ID, replacement, mock.AnythingOfType("time.Time")).Return(nil)

	err := svc.ReplaceAssignees(ctx, task, replacement)
	require.NoError(t, err)
	store.AssertCalled(t, "RemoveAllAssignees", mock.Anything, task.ID)
}

func TestUpdateStatus(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	taskID := uuid.New()
	done := StatusCompleted
	store.On("Update", mock.Anything, taskID, mock.MatchedBy(func(patch Patch) bool {
		return patch.Status != nil && *patch.Status == done &&
			patch.Title == nil && patch.Priority == nil
	})).Return(&Task{ID: taskID, Status: done}, nil)

	task, err := svc.UpdateStatus(ctx, taskID, done)
	require.NoError(t, err)
	assert.Equal(t, done, task.Status)
}

func TestUpdate_ClearDue(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	taskID := uuid.New()
	store.On("Update", mock.Anything, taskID, mock.MatchedBy(func(patch Patch) bool {
		return patch.ClearDue && patch.DueDate == nil
	})).Return(&Task{ID: taskID}, nil)

	task, err := svc.Update(ctx, taskID, Patch{ClearDue: true})
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)
}

func TestStatistics(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	teamID := uuid.New()
	want := &Statistics{Total: 10, Pending: 4, InProgress: 3, Completed: 3, Overdue: 2, HighPriority: 5}
	store.On("Statistics", ctx, teamID).Return(want, nil)

	got, err := svc.Statistics(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
