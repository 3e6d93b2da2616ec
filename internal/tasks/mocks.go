package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
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

func (m *MockStore) Create(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockStore) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Task, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) AddAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID, assignedAt time.Time) error {
	args := m.Called(ctx, taskID, userIDs, assignedAt)
	return args.Error(0)
}

func (m *MockStore) RemoveAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	args := m.Called(ctx, taskID, userIDs)
	return args.Error(0)
}

func (m *MockStore) RemoveAllAssignees(ctx context.Context, taskID uuid.UUID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockStore) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]AssigneeInfo, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AssigneeInfo), args.Error(1)
}

func (m *MockStore) IsAssignee(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, taskID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListForTeam(ctx context.Context, teamID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error) {
	args := m.Called(ctx, teamID, filters, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Task), args.Int(1), args.Error(2)
}

func (m *MockStore) ListForAssignee(ctx context.Context, userID uuid.UUID, filters Filters, page validation.PageParams) ([]Task, int, error) {
	args := m.Called(ctx, userID, filters, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Task), args.Int(1), args.Error(2)
}

func (m *MockStore) Statistics(ctx context.Context, teamID uuid.UUID) (*Statistics, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Statistics), args.Error(1)
}

type MockMembershipChecker struct {
	mock.Mock
}

func (m *MockMembershipChecker) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}
