package invites

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/internal/mail"
	"github.com/taskhive/taskhive/internal/teams"
	"github.com/taskhive/taskhive/internal/users"
)

type serviceMocks struct {
	store  *MockStore
	teams  *MockTeamDirectory
	users  *MockUserDirectory
	mailer *MockMailer
}

func newTestService() (*Service, *serviceMocks) {
	m := &serviceMocks{
		store:  &MockStore{},
		teams:  &MockTeamDirectory{},
		users:  &MockUserDirectory{},
		mailer: &MockMailer{},
	}
	svc := NewService(&MockTransactor{}, m.store, m.teams, m.users, m.mailer, "https://taskhive.test")
	return svc, m
}

func pendingInvite(teamID uuid.UUID, email string) *Invite {
	token, _ := GenerateToken()
	return &Invite{
		ID:        uuid.New(),
		TeamID:    teamID,
		Email:     email,
		Role:      users.RoleMember,
		Status:    StatusPending,
		Token:     token,
		InvitedBy: uuid.New(),
		ExpiresAt: time.Now().UTC().Add(TTL),
		CreatedAt: time.Now().UTC(),
	}
}

func TestSend_PartialSuccess(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	team := &teams.Team{ID: uuid.New(), Name: "Platform", LeadID: uuid.New()}
	inviter := &users.User{ID: team.LeadID, Name: "Dana", Email: "dana@example.com"}

	m.teams.On("GetByID", ctx, team.ID).Return(team, nil)

	// First entry is fresh, second is already a member.
	m.teams.On("IsMemberByEmail", ctx, team.ID, "new@example.com").Return(false, nil)
	m.teams.On("IsMemberByEmail", ctx, team.ID, "member@example.com").Return(true, nil)
	m.store.On("HasPending", ctx, team.ID, "new@example.com").Return(false, nil)

	createdID := uuid.New()
	m.store.On("Create", ctx, mock.AnythingOfType("*invites.Invite")).Run(func(args mock.Arguments) {
		invite := args.Get(1).(*Invite)
		invite.ID = createdID
	}).Return(nil)
	m.mailer.On("Send", ctx, "new@example.com", mail.KindTeamInvite, mock.Anything).Return(nil)

	results, err := svc.Send(ctx, team.ID, inviter, []SendEntry{
		{Email: "new@example.com", Role: users.RoleMember},
		{Email: "member@example.com", Role: users.RoleMember},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	require.NotNil(t, results[0].InviteID)
	assert.Equal(t, createdID, *results[0].InviteID)

	assert.False(t, results[1].Success)
	assert.Nil(t, results[1].InviteID)
	assert.Contains(t, results[1].Message, "already a member")
}

func TestSend_DuplicatePending(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	team := &teams.Team{ID: uuid.New(), Name: "Platform"}
	inviter := &users.User{ID: uuid.New(), Name: "Dana"}

	m.teams.On("GetByID", ctx, team.ID).Return(team, nil)
	m.teams.On("IsMemberByEmail", ctx, team.ID, "dup@example.com").Return(false, nil)
	m.store.On("HasPending", ctx, team.ID, "dup@example.com").Return(true, nil)

	results, err := svc.Send(ctx, team.ID, inviter, []SendEntry{
		{Email: "dup@example.com", Role: users.RoleMember},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Message, "pending invitation already exists")
	m.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSend_MailFailureKeepsInvite(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	team := &teams.Team{ID: uuid.New(), Name: "Platform"}
	inviter := &users.User{ID: uuid.New(), Name: "Dana"}

	m.teams.On("GetByID", ctx, team.ID).Return(team, nil)
	m.teams.On("IsMemberByEmail", ctx, team.ID, "bounce@example.com").Return(false, nil)
	m.store.On("HasPending", ctx, team.ID, "bounce@example.com").Return(false, nil)

	createdID := uuid.New()
	m.store.On("Create", ctx, mock.AnythingOfType("*invites.Invite")).Run(func(args mock.Arguments) {
		args.Get(1).(*Invite).ID = createdID
	}).Return(nil)
	m.mailer.On("Send", ctx, "bounce@example.com", mail.KindTeamInvite, mock.Anything).Return(errors.New("gateway down"))

	results, err := svc.Send(ctx, team.ID, inviter, []SendEntry{
		{Email: "bounce@example.com", Role: users.RoleLead},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The invite row survives even when the mail bounces.
	assert.False(t, results[0].Success)
	require.NotNil(t, results[0].InviteID)
	assert.Equal(t, createdID, *results[0].InviteID)
}

func TestSend_InvalidRole(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	team := &teams.Team{ID: uuid.New(), Name: "Platform"}
	m.teams.On("GetByID", ctx, team.ID).Return(team, nil)

	results, err := svc.Send(ctx, team.ID, &users.User{ID: uuid.New()}, []SendEntry{
		{Email: "x@example.com", Role: users.Role("owner")},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "Invalid role", results[0].Message)
}

func TestAccept_Success(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	invite := pendingInvite(uuid.New(), "joiner@example.com")
	invite.Role = users.RoleLead
	user := &users.User{ID: uuid.New(), Email: "joiner@example.com"}
	team := &teams.Team{ID: invite.TeamID, Name: "Platform"}

	m.store.On("GetPendingByToken", ctx, invite.Token).Return(invite, nil)
	m.users.On("GetByID", ctx, user.ID).Return(user, nil)
	m.store.On("MarkAccepted", ctx, invite.ID, mock.AnythingOfType("time.Time")).Return(nil)
	m.teams.On("UpsertMembership", ctx, mock.MatchedBy(func(membership *teams.Membership) bool {
		return membership.TeamID == invite.TeamID &&
			membership.UserID == user.ID &&
			membership.Role == users.RoleLead
	})).Return(nil)
	m.teams.On("GetByID", ctx, invite.TeamID).Return(team, nil)

	result, err := svc.Accept(ctx, invite.Token, user.ID)
	require.NoError(t, err)
	assert.Equal(t, team, result.Team)
	assert.Equal(t, users.RoleLead, result.Role)
}

func TestAccept_UnknownToken(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	token, _ := GenerateToken()
	m.store.On("GetPendingByToken", ctx, token).Return(nil, ErrNotFound)

	_, err := svc.Accept(ctx, token, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccept_MalformedToken(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.Accept(context.Background(), "not-a-token", uuid.New())
	assert.ErrorIs(t, err, ErrInvalidToken)
	m.store.AssertNotCalled(t, "GetPendingByToken", mock.Anything, mock.Anything)
}

func TestAccept_ExpiredFlipsStatus(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	invite := pendingInvite(uuid.New(), "late@example.com")
	invite.ExpiresAt = time.Now().UTC().Add(-time.Hour)

	m.store.On("GetPendingByToken", ctx, invite.Token).Return(invite, nil)
	m.store.On("MarkExpired", ctx, invite.ID).Return(nil)

	_, err := svc.Accept(ctx, invite.Token, uuid.New())
	assert.ErrorIs(t, err, ErrExpired)

	// The stale pending row was flipped, and no membership was granted.
	m.store.AssertCalled(t, "MarkExpired", ctx, invite.ID)
	m.teams.AssertNotCalled(t, "UpsertMembership", mock.Anything, mock.Anything)
}

func TestAccept_RequiresRegistration(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	invite := pendingInvite(uuid.New(), "nobody@example.com")

	m.store.On("GetPendingByToken", ctx, invite.Token).Return(invite, nil)
	m.users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, users.ErrNotFound)

	_, err := svc.Accept(ctx, invite.Token, uuid.Nil)
	assert.ErrorIs(t, err, ErrRequiresRegistration)
}

func TestAccept_EmailMismatch(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	invite := pendingInvite(uuid.New(), "invited@example.com")
	other := &users.User{ID: uuid.New(), Email: "other@example.com"}

	m.store.On("GetPendingByToken", ctx, invite.Token).Return(invite, nil)
	m.users.On("GetByID", ctx, other.ID).Return(other, nil)

	_, err := svc.Accept(ctx, invite.Token, other.ID)
	assert.ErrorIs(t, err, ErrEmailMismatch)
	m.teams.AssertNotCalled(t, "UpsertMembership", mock.Anything, mock.Anything)
}

func TestAccept_RaceLosesToConcurrentAccept(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	invite := pendingInvite(uuid.New(), "racer@example.com")
	user := &users.User{ID: uuid.New(), Email: "racer@example.com"}

	m.store.On("GetPendingByToken", ctx, invite.Token).Return(invite, nil)
	m.users.On("GetByID", ctx, user.ID).Return(user, nil)
	m.store.On("MarkAccepted", ctx, invite.ID, mock.AnythingOfType("time.Time")).Return(ErrNotPending)

	_, err := svc.Accept(ctx, invite.Token, user.ID)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	inviterID := uuid.New()

	tests := []struct {
		name    string
		invite  func() *Invite
		actorID uuid.UUID
		wantErr error
	}{
		{
			name: "inviter revokes pending invite",
			invite: func() *Invite {
				invite := pendingInvite(uuid.New(), "x@example.com")
				invite.InvitedBy = inviterID
				return invite
			},
			actorID: inviterID,
		},
		{
			name: "someone else cannot revoke",
			invite: func() *Invite {
				invite := pendingInvite(uuid.New(), "x@example.com")
				invite.InvitedBy = inviterID
				return invite
			},
			actorID: uuid.New(),
			wantErr: ErrNotInviter,
		},
		{
			name: "already accepted",
			invite: func() *Invite {
				invite := pendingInvite(uuid.New(), "x@example.com")
				invite.InvitedBy = inviterID
				invite.Status = StatusAccepted
				return invite
			},
			actorID: inviterID,
			wantErr: ErrNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService()
			ctx := context.Background()

			invite := tt.invite()
			m.store.On("GetByID", ctx, invite.ID).Return(invite, nil)
			if tt.wantErr == nil {
				m.store.On("MarkRevoked", ctx, invite.ID).Return(nil)
			}

			err := svc.Revoke(ctx, invite.ID, tt.actorID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				m.store.AssertNotCalled(t, "MarkRevoked", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRevoke_NotFound(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	inviteID := uuid.New()
	m.store.On("GetByID", ctx, inviteID).Return(nil, ErrNotFound)

	err := svc.Revoke(ctx, inviteID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
