package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/mail"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func TestRegister(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, mail.Noop{})
	ctx := context.Background()

	store.On("Create", ctx, mock.MatchedBy(func(user *User) bool {
		return user.Email == "dana@example.com" &&
			user.Role == RoleMember &&
			user.IsActive &&
			user.PasswordHash != "hunter2-but-longer"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*User).ID = uuid.New()
	}).Return(nil)

	user, err := svc.Register(ctx, "  Dana ", "dana@example.com", "hunter2-but-longer")
	require.NoError(t, err)
	assert.Equal(t, "Dana", user.Name)
	assert.NoError(t, auth.VerifyPassword(user.PasswordHash, "hunter2-but-longer"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, mail.Noop{})

	store.On("Create", mock.Anything, mock.Anything).Return(ErrEmailTaken)

	_, err := svc.Register(context.Background(), "Dana", "dana@example.com", "hunter2-but-longer")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	active := &User{ID: uuid.New(), Email: "dana@example.com", PasswordHash: hash, IsActive: true}
	inactive := &User{ID: uuid.New(), Email: "gone@example.com", PasswordHash: hash, IsActive: false}

	tests := []struct {
		name     string
		email    string
		password string
		stored   *User
		storeErr error
		wantErr  error
	}{
		{"valid credentials", "dana@example.com", "correct-horse-battery", active, nil, nil},
		{"wrong password", "dana@example.com", "wrong", active, nil, ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "whatever", nil, ErrNotFound, ErrInvalidCredentials},
		{"deactivated account", "gone@example.com", "correct-horse-battery", inactive, nil, ErrInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			svc := NewService(store, mail.Noop{})

			store.On("GetByEmail", mock.Anything, tt.email).Return(tt.stored, tt.storeErr)

			user, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stored.ID, user.ID)
		})
	}
}
