package teams

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/taskhive/taskhive/internal/users"
	"github.com/taskhive/taskhive/internal/validation"
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

func (m *MockStore) Create(ctx context.Context, team *Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockStore) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Team), args.Error(1)
}

func (m *MockStore) UpdateName(ctx context.Context, id uuid.UUID, name string) (*Team, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Team), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) UpsertMembership(ctx context.Context, membership *Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockStore) DeleteMemberships(ctx context.Context, teamID uuid.UUID) error {
	args := m.Called(ctx, teamID)
	return args.Error(0)
}

func (m *MockStore) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) IsMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, teamID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) MemberRole(ctx context.Context, teamID, userID uuid.UUID) (users.Role, bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Get(0).(users.Role), args.Bool(1), args.Error(2)
}

func (m *MockStore) ListMembers(ctx context.Context, teamID uuid.UUID) ([]MemberInfo, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]MemberInfo), args.Error(1)
}

func (m *MockStore) ListForUser(ctx context.Context, userID uuid.UUID, page validation.PageParams) ([]TeamWithCounts, int, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]TeamWithCounts), args.Int(1), args.Error(2)
}
