package teams

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/internal/users"
)

func TestCreate_BootstrapsLeadMembership(t *testing.T) {
	store := &MockStore{}
	svc := NewService(&MockTransactor{}, store)
	ctx := context.Background()

	creator := uuid.New()
	teamID := uuid.New()

	store.On("Create", mock.Anything, mock.MatchedBy(func(team *Team) bool {
		return team.Name == "Platform" && team.LeadID == creator && team.CreatedBy == creator
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Team).ID = teamID
	}).Return(nil)

	store.On("UpsertMembership", mock.Anything, mock.MatchedBy(func(membership *Membership) bool {
		return membership.TeamID == teamID &&
			membership.UserID == creator &&
			membership.Role == users.RoleLead
	})).Return(nil)

	team, err := svc.Create(ctx, "Platform", creator)
	require.NoError(t, err)
	assert.Equal(t, teamID, team.ID)
	assert.Equal(t, creator, team.LeadID)

	store.AssertNumberOfCalls(t, "UpsertMembership", 1)
}

func TestCreate_NoMembershipOnFailure(t *testing.T) {
	store := &MockStore{}
	svc := NewService(&MockTransactor{}, store)

	store.On("Create", mock.Anything, mock.Anything).Return(ErrNameTaken)

	_, err := svc.Create(context.Background(), "Platform", uuid.New())
	assert.ErrorIs(t, err, ErrNameTaken)
	store.AssertNotCalled(t, "UpsertMembership", mock.Anything, mock.Anything)
}

func TestUpdate_PropagatesNameConflict(t *testing.T) {
	store := &MockStore{}
	svc := NewService(&MockTransactor{}, store)
	teamID := uuid.New()

	store.On("UpdateName", mock.Anything, teamID, "Taken").Return(nil, ErrNameTaken)

	_, err := svc.Update(context.Background(), teamID, "Taken")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestDelete_PropagatesStoreError(t *testing.T) {
	store := &MockStore{}
	svc := NewService(&MockTransactor{}, store)
	teamID := uuid.New()

	boom := errors.New("connection reset")
	store.On("Delete", mock.Anything, teamID).Return(boom)

	err := svc.Delete(context.Background(), teamID)
	assert.ErrorIs(t, err, boom)
}

func TestGetWithMembers(t *testing.T) {
	store := &MockStore{}
	svc := NewService(&MockTransactor{}, store)
	ctx := context.Background()

	teamID := uuid.New()
	team := &Team{ID: teamID, Name: "Platform"}
	members := []MemberInfo{{UserID: uuid.New(), Name: "Dana", Role: users.RoleLead}}

	store.On("GetByID", ctx, teamID).Return(team, nil)
	store.On("ListMembers", ctx, teamID).Return(members, nil)

	got, gotMembers, err := svc.GetWithMembers(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, team, got)
	assert.Equal(t, members, gotMembers)
}
