package invites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/db"
	"github.com/taskhive/taskhive/internal/mail"
	"github.com/taskhive/taskhive/internal/teams"
	"github.com/taskhive/taskhive/internal/users"
)

var (
	// ErrInvalidToken is returned when a token matches no pending invite.
	// Deliberately indistinguishable from a consumed or revoked one.
	ErrInvalidToken = errors.New("invalid or expired invitation")

	// ErrExpired is returned when the invite's deadline has passed.
	ErrExpired = errors.New("invitation has expired")

	// ErrRequiresRegistration is returned when no account exists for the
	// invited email address yet.
	ErrRequiresRegistration = errors.New("no account registered for the invited email")

	// ErrEmailMismatch is returned when the accepting user's email does not
	// match the invited address.
	ErrEmailMismatch = errors.New("invitation was issued to a different email address")

	// ErrNotInviter is returned when someone other than the issuer tries to
	// revoke an invite.
	ErrNotInviter = errors.New("only the inviter can revoke this invitation")
)

// TeamDirectory is the slice of the team store the invite flows need.
// Satisfied by teams.Store.
type TeamDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*teams.Team, error)
	IsMemberByEmail(ctx context.Context, teamID uuid.UUID, email string) (bool, error)
	UpsertMembership(ctx context.Context, m *teams.Membership) error
}

// UserDirectory resolves accounts during acceptance. Satisfied by users.Store.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

// Service runs the invite lifecycle: batch issuance, token acceptance,
// revocation and listing.
type Service struct {
	tx      db.Transactor
	store   Store
	teams   TeamDirectory
	users   UserDirectory
	mailer  mail.Mailer
	baseURL string
}

// NewService creates an invite service. baseURL is the public origin used to
// build accept links in outgoing mail.
func NewService(tx db.Transactor, store Store, teams TeamDirectory, users UserDirectory, mailer mail.Mailer, baseURL string) *Service {
	return &Service{tx: tx, store: store, teams: teams, users: users, mailer: mailer, baseURL: baseURL}
}

// Send issues invites for a batch of entries. Entries succeed or fail
// independently: one result per entry, in input order, and a bad entry never
// aborts the rest. An invite that was created but whose mail bounced still
// reports its ID so the caller can resend.
func (s *Service) Send(ctx context.Context, teamID uuid.UUID, inviter *users.User, entries []SendEntry) ([]SendResult, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	results := make([]SendResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, s.sendOne(ctx, team, inviter, entry))
	}

	return results, nil
}

func (s *Service) sendOne(ctx context.Context, team *teams.Team, inviter *users.User, entry SendEntry) SendResult {
	result := SendResult{Email: entry.Email}

	if !entry.Role.IsValid() {
		result.Message = "Invalid role"
		return result
	}

	isMember, err := s.teams.IsMemberByEmail(ctx, team.ID, entry.Email)
	if err != nil {
		log.Error().Err(err).Str("team_id", team.ID.String()).Msg("Failed to check membership for invite")
		result.Message = "Internal error"
		return result
	}
	if isMember {
		result.Message = "User is already a member of this team"
		return result
	}

	hasPending, err := s.store.HasPending(ctx, team.ID, entry.Email)
	if err != nil {
		log.Error().Err(err).Str("team_id", team.ID.String()).Msg("Failed to check pending invite")
		result.Message = "Internal error"
		return result
	}
	if hasPending {
		result.Message = "A pending invitation already exists for this email"
		return result
	}

	invite, err := s.createWithRetry(ctx, team.ID, inviter.ID, entry)
	if err != nil {
		if errors.Is(err, ErrDuplicatePending) {
			result.Message = "A pending invitation already exists for this email"
		} else {
			log.Error().Err(err).Str("team_id", team.ID.String()).Msg("Failed to create invite")
			result.Message = "Internal error"
		}
		return result
	}

	result.InviteID = &invite.ID
	if err := s.mailer.Send(ctx, entry.Email, mail.KindTeamInvite, map[string]string{
		"team_name":    team.Name,
		"inviter_name": inviter.Name,
		"role":         string(entry.Role),
		"accept_url":   fmt.Sprintf("%s/invites/accept?token=%s", s.baseURL, invite.Token),
		"expires_at":   invite.ExpiresAt.Format(time.RFC3339),
	}); err != nil {
		log.Warn().Err(err).Str("invite_id", invite.ID.String()).Msg("Failed to send invite mail")
		result.Message = "Invitation created but the email could not be delivered"
		return result
	}

	result.Success = true
	result.Message = "Invitation sent"
	return result
}

// createWithRetry regenerates the token on the astronomically unlikely token
// collision instead of failing the entry.
func (s *Service) createWithRetry(ctx context.Context, teamID, inviterID uuid.UUID, entry SendEntry) (*Invite, error) {
	for attempt := 0; attempt < 3; attempt++ {
		token, err := GenerateToken()
		if err != nil {
			return nil, err
		}

		invite := &Invite{
			TeamID:    teamID,
			Email:     entry.Email,
			Role:      entry.Role,
			Token:     token,
			InvitedBy: inviterID,
			ExpiresAt: time.Now().UTC().Add(TTL),
		}
		err = s.store.Create(ctx, invite)
		if err == nil {
			return invite, nil
		}
		if !errors.Is(err, ErrTokenCollision) {
			return nil, err
		}
	}
	return nil, ErrTokenCollision
}

// AcceptResult is what acceptance yields: the joined team and the granted
// role.
type AcceptResult struct {
	Team *teams.Team `json:"team"`
	Role users.Role  `json:"role"`
}

// Accept consumes a pending invite token for the user identified by actorID.
// A past-deadline invite is flipped to expired on the spot, then rejected, so
// reads never have to second-guess a stale pending row. The membership write
// and the status flip commit atomically.
func (s *Service) Accept(ctx context.Context, token string, actorID uuid.UUID) (*AcceptResult, error) {
	if !ValidTokenFormat(token) {
		return nil, ErrInvalidToken
	}

	invite, err := s.store.GetPendingByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if invite.IsExpired(time.Now().UTC()) {
		if err := s.store.MarkExpired(ctx, invite.ID); err != nil && !errors.Is(err, ErrNotPending) {
			log.Error().Err(err).Str("invite_id", invite.ID.String()).Msg("Failed to expire invite")
		}
		return nil, ErrExpired
	}

	user, err := s.resolveAcceptor(ctx, invite, actorID)
	if err != nil {
		return nil, err
	}
	if user.Email != invite.Email {
		return nil, ErrEmailMismatch
	}

	now := time.Now().UTC()
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.MarkAccepted(txCtx, invite.ID, now); err != nil {
			return err
		}
		return s.teams.UpsertMembership(txCtx, &teams.Membership{
			TeamID:   invite.TeamID,
			UserID:   user.ID,
			Role:     invite.Role,
			JoinedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotPending) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	team, err := s.teams.GetByID(ctx, invite.TeamID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("invite_id", invite.ID.String()).
		Str("team_id", invite.TeamID.String()).
		Str("user_id", user.ID.String()).
		Msg("Invite accepted")

	return &AcceptResult{Team: team, Role: invite.Role}, nil
}

func (s *Service) resolveAcceptor(ctx context.Context, invite *Invite, actorID uuid.UUID) (*users.User, error) {
	if actorID != uuid.Nil {
		return s.users.GetByID(ctx, actorID)
	}

	user, err := s.users.GetByEmail(ctx, invite.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrRequiresRegistration
		}
		return nil, err
	}
	return user, nil
}

// Revoke cancels a pending invite. Only the user who issued it may revoke it,
// and an invite that already resolved reports that instead of pretending it
// never existed.
func (s *Service) Revoke(ctx context.Context, inviteID, actorID uuid.UUID) error {
	invite, err := s.store.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.InvitedBy != actorID {
		return ErrNotInviter
	}
	if invite.Status != StatusPending {
		return ErrNotPending
	}

	if err := s.store.MarkRevoked(ctx, inviteID); err != nil {
		return err
	}

	log.Info().Str("invite_id", inviteID.String()).Msg("Invite revoked")
	return nil
}

// ListForTeam lists a team's invites, newest first, optionally filtered by
// status.
func (s *Service) ListForTeam(ctx context.Context, teamID uuid.UUID, status *Status) ([]Invite, error) {
	return s.store.ListForTeam(ctx, teamID, status)
}

// ListPendingForEmail lists the acceptable invites addressed to an email.
func (s *Service) ListPendingForEmail(ctx context.Context, email string) ([]Invite, error) {
	return s.store.ListPendingForEmail(ctx, email)
}
