package invites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/taskhive/taskhive/internal/mail"
	"github.com/taskhive/taskhive/internal/teams"
	"github.com/taskhive/taskhive/internal/users"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, invite *Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockStore) GetByID(ctx context.Context, id uuid.UUID) (*Invite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invite), args.Error(1)
}

func (m *MockStore) GetPendingByToken(ctx context.Context, token string) (*Invite, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invite), args.Error(1)
}

func (m *MockStore) HasPending(ctx context.Context, teamID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, teamID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockStore) MarkExpired(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) MarkRevoked(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ListForTeam(ctx context.Context, teamID uuid.UUID, status *Status) ([]Invite, error) {
	args := m.Called(ctx, teamID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Invite), args.Error(1)
}

func (m *MockStore) ListPendingForEmail(ctx context.Context, email string) ([]Invite, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Invite), args.Error(1)
}

func (m *MockStore) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockTeamDirectory struct {
	mock.Mock
}

func (m *MockTeamDirectory) GetByID(ctx context.Context, id uuid.UUID) (*teams.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*teams.Team), args.Error(1)
}

func (m *MockTeamDirectory) IsMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, teamID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamDirectory) UpsertMembership(ctx context.Context, membership *teams.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserDirectory) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, recipient string, kind mail.Kind, data map[string]string) error {
	args := m.Called(ctx, recipient, kind, data)
	return args.Error(0)
}
