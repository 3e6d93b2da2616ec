package authz

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/users"
)

// UserLoader resolves the authenticated account backing an actor.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// LoadActor builds the decision subject for the current request from the
// authenticated user ID in ctx. The account is re-read on every call so role
// changes and deactivations take effect immediately.
func LoadActor(ctx context.Context, loader UserLoader) (Actor, *users.User, error) {
	user, err := loader.GetByID(ctx, auth.GetUserID(ctx))
	if err != nil {
		return Actor{}, nil, err
	}
	return Actor{ID: user.ID, Role: user.Role}, user, nil
}
