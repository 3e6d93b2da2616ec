package invites

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/teams"
	"github.com/taskhive/taskhive/internal/users"
	"github.com/taskhive/taskhive/internal/validation"
)

// SendRequest is the payload for POST /api/v1/teams/{teamID}/invites
type SendRequest struct {
	Invites []SendEntryRequest `json:"invites" validate:"required,min=1,max=50,dive"`
}

// SendEntryRequest is one invitation in a batch request.
type SendEntryRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
	Role  string `json:"role" validate:"required,oneof=admin lead member"`
}

// AcceptRequest is the payload for POST /api/v1/invites/accept
type AcceptRequest struct {
	Token string `json:"token" validate:"required,len=64"`
}

// HandleSend handles POST /api/v1/teams/{teamID}/invites
func HandleSend(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, user, ok := loadTeamAndActor(w, r, teamService, loader)
		if !ok {
			return
		}

		if !engine.CanUpdateTeam(actor, authz.TeamRef{ID: team.ID, LeadID: team.LeadID}) {
			apperrors.WriteForbidden(w, r, "Only the team lead or an admin can send invitations")
			return
		}

		var req SendRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		entries := make([]SendEntry, 0, len(req.Invites))
		for _, entry := range req.Invites {
			entries = append(entries, SendEntry{Email: entry.Email, Role: users.Role(entry.Role)})
		}

		results, err := service.Send(ctx, team.ID, user, entries)
		if err != nil {
			log.Error().Err(err).Msg("Failed to send invites")
			apperrors.WriteInternalError(w, r, "Failed to send invitations")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"results": results})
	}
}

// HandleListForTeam handles GET /api/v1/teams/{teamID}/invites
func HandleListForTeam(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, _, ok := loadTeamAndActor(w, r, teamService, loader)
		if !ok {
			return
		}

		if !engine.CanUpdateTeam(actor, authz.TeamRef{ID: team.ID, LeadID: team.LeadID}) {
			apperrors.WriteForbidden(w, r, "Only the team lead or an admin can list invitations")
			return
		}

		var status *Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed := Status(raw)
			if !parsed.IsValid() {
				apperrors.WriteBadRequest(w, r, "Invalid status filter")
				return
			}
			status = &parsed
		}

		invites, err := service.ListForTeam(ctx, team.ID, status)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list invites")
			apperrors.WriteInternalError(w, r, "Failed to list invitations")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"invites": invites})
	}
}

// HandleAccept handles POST /api/v1/invites/accept. The route allows both
// authenticated and anonymous callers: an anonymous caller with no matching
// account is told to register first.
func HandleAccept(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req AcceptRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		result, err := service.Accept(ctx, req.Token, auth.GetUserID(ctx))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidToken):
				apperrors.WriteNotFound(w, r, "Invalid or expired invitation")
			case errors.Is(err, ErrExpired):
				apperrors.WriteConflict(w, r, "This invitation has expired")
			case errors.Is(err, ErrRequiresRegistration):
				apperrors.WriteUnprocessable(w, r, "No account exists for the invited email; register first")
			case errors.Is(err, ErrEmailMismatch):
				apperrors.WriteForbidden(w, r, "This invitation was issued to a different email address")
			case errors.Is(err, users.ErrNotFound):
				apperrors.WriteUnauthorized(w, r, "Account no longer exists")
			default:
				log.Error().Err(err).Msg("Failed to accept invite")
				apperrors.WriteInternalError(w, r, "Failed to accept invitation")
			}
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, result)
	}
}

// HandleRevoke handles DELETE /api/v1/invites/{inviteID}
func HandleRevoke(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		inviteID, err := uuid.Parse(chi.URLParam(r, "inviteID"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invite ID")
			return
		}

		err = service.Revoke(ctx, inviteID, auth.GetUserID(ctx))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				apperrors.WriteNotFound(w, r, "Invitation not found")
			case errors.Is(err, ErrNotInviter):
				apperrors.WriteForbidden(w, r, "Only the inviter can revoke this invitation")
			case errors.Is(err, ErrNotPending):
				apperrors.WriteConflict(w, r, "This invitation has already been resolved")
			default:
				log.Error().Err(err).Msg("Failed to revoke invite")
				apperrors.WriteInternalError(w, r, "Failed to revoke invitation")
			}
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"revoked": true})
	}
}

// HandleListPending handles GET /api/v1/invites/pending — the acceptable
// invites addressed to the caller's email.
func HandleListPending(service *Service, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		_, user, err := authz.LoadActor(ctx, loader)
		if err != nil {
			apperrors.WriteUnauthorized(w, r, "Account no longer exists")
			return
		}

		invites, err := service.ListPendingForEmail(ctx, user.Email)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list pending invites")
			apperrors.WriteInternalError(w, r, "Failed to list invitations")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"invites": invites})
	}
}

func loadTeamAndActor(w http.ResponseWriter, r *http.Request, teamService *teams.Service, loader authz.UserLoader) (*teams.Team, authz.Actor, *users.User, bool) {
	ctx := r.Context()

	teamID, err := teams.TeamIDParam(r)
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid team ID")
		return nil, authz.Actor{}, nil, false
	}

	team, err := teamService.Get(ctx, teamID)
	if err != nil {
		if errors.Is(err, teams.ErrNotFound) {
			apperrors.WriteNotFound(w, r, "Team not found")
			return nil, authz.Actor{}, nil, false
		}
		log.Error().Err(err).Msg("Failed to load team")
		apperrors.WriteInternalError(w, r, "Failed to load team")
		return nil, authz.Actor{}, nil, false
	}

	actor, user, err := authz.LoadActor(ctx, loader)
	if err != nil {
		apperrors.WriteUnauthorized(w, r, "Account no longer exists")
		return nil, authz.Actor{}, nil, false
	}

	return team, actor, user, true
}
