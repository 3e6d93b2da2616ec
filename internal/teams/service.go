package teams

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/db"
	"github.com/taskhive/taskhive/internal/users"
	"github.com/taskhive/taskhive/internal/validation"
)

// Service orchestrates team mutations. Authorization is the caller's
// responsibility; the service trusts that the gate check already happened.
type Service struct {
	tx    db.Transactor
	store Store
}

// NewService creates a team service.
func NewService(tx db.Transactor, store Store) *Service {
	return &Service{tx: tx, store: store}
}

// Create creates a team and attaches the creator as a member with the
// team-scoped lead role. Both writes happen in one transaction: a team must
// never exist without its creator as a member.
func (s *Service) Create(ctx context.Context, name string, creator uuid.UUID) (*Team, error) {
	team := &Team{
		Name:      name,
		LeadID:    creator,
		CreatedBy: creator,
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, team); err != nil {
			return err
		}

		return s.store.UpsertMembership(txCtx, &Membership{
			TeamID:   team.ID,
			UserID:   creator,
			Role:     users.RoleLead,
			JoinedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("team_id", team.ID.String()).Str("name", team.Name).Msg("Team created")
	return team, nil
}

// Get fetches a team by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Team, error) {
	return s.store.GetByID(ctx, id)
}

// GetWithMembers fetches a team and its member list.
func (s *Service) GetWithMembers(ctx context.Context, id uuid.UUID) (*Team, []MemberInfo, error) {
	team, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.store.ListMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return team, members, nil
}

// ListForUser lists the teams the user belongs to, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, page validation.PageParams) ([]TeamWithCounts, int, error) {
	return s.store.ListForUser(ctx, userID, page)
}

// Update renames a team.
func (s *Service) Update(ctx context.Context, id uuid.UUID, name string) (*Team, error) {
	return s.store.UpdateName(ctx, id, name)
}

// Delete removes a team and everything it owns in one transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.store.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Str("team_id", id.String()).Msg("Team deleted")
	return nil
}

// IsMember reports whether the user belongs to the team.
func (s *Service) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	return s.store.IsMember(ctx, teamID, userID)
}
