package teams

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/validation"
)

// CreateRequest is the payload for POST /api/v1/teams
type CreateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UpdateRequest is the payload for PUT /api/v1/teams/{teamID}
type UpdateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ListResponse carries a page of teams.
type ListResponse struct {
	Teams   []TeamWithCounts `json:"teams"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// DetailResponse carries a team with its member list.
type DetailResponse struct {
	Team    *Team        `json:"team"`
	Members []MemberInfo `json:"members"`
}

// HandleCreate handles POST /api/v1/teams
func HandleCreate(service *Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, _, err := authz.LoadActor(ctx, loader)
		if err != nil {
			apperrors.WriteUnauthorized(w, r, "Account no longer exists")
			return
		}

		var req CreateRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		if !engine.CanCreateTeam(actor) {
			apperrors.WriteForbidden(w, r, "You cannot create teams")
			return
		}

		team, err := service.Create(ctx, req.Name, actor.ID)
		if err != nil {
			if errors.Is(err, ErrNameTaken) {
				apperrors.WriteConflict(w, r, "Team name already exists")
				return
			}
			log.Error().Err(err).Msg("Failed to create team")
			apperrors.WriteInternalError(w, r, "Failed to create team")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{"team": team})
	}
}

// HandleList handles GET /api/v1/teams
func HandleList(service *Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, _, err := authz.LoadActor(ctx, loader)
		if err != nil {
			apperrors.WriteUnauthorized(w, r, "Account no longer exists")
			return
		}
		if !engine.CanViewTeamList(actor) {
			apperrors.WriteForbidden(w, r, "You cannot list teams")
			return
		}

		page := validation.ParsePageParams(r)
		items, total, err := service.ListForUser(ctx, actor.ID, page)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list teams")
			apperrors.WriteInternalError(w, r, "Failed to list teams")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, ListResponse{
			Teams:   items,
			Total:   total,
			Page:    page.Page,
			PerPage: page.PerPage,
		})
	}
}

// HandleGet handles GET /api/v1/teams/{teamID}
func HandleGet(service *Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, ok := loadTeamAndActor(w, r, service, loader)
		if !ok {
			return
		}

		allowed, err := engine.CanViewTeam(ctx, actor, authz.TeamRef{ID: team.ID, LeadID: team.LeadID})
		if err != nil {
			log.Error().Err(err).Msg("Failed to evaluate team access")
			apperrors.WriteInternalError(w, r, "Failed to load team")
			return
		}
		if !allowed {
			apperrors.WriteForbidden(w, r, "You are not a member of this team")
			return
		}

		team, members, err := service.GetWithMembers(ctx, team.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load team")
			apperrors.WriteInternalError(w, r, "Failed to load team")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, DetailResponse{Team: team, Members: members})
	}
}

// HandleUpdate handles PUT /api/v1/teams/{teamID}
func HandleUpdate(service *Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, ok := loadTeamAndActor(w, r, service, loader)
		if !ok {
			return
		}

		if !engine.CanUpdateTeam(actor, authz.TeamRef{ID: team.ID, LeadID: team.LeadID}) {
			apperrors.WriteForbidden(w, r, "Only the team lead or an admin can update this team")
			return
		}

		var req UpdateRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		updated, err := service.Update(ctx, team.ID, req.Name)
		if err != nil {
			if errors.Is(err, ErrNameTaken) {
				apperrors.WriteConflict(w, r, "Team name already exists")
				return
			}
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Team not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update team")
			apperrors.WriteInternalError(w, r, "Failed to update team")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"team": updated})
	}
}

// HandleDelete handles DELETE /api/v1/teams/{teamID}
func HandleDelete(service *Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, ok := loadTeamAndActor(w, r, service, loader)
		if !ok {
			return
		}

		if !engine.CanDeleteTeam(actor) {
			apperrors.WriteForbidden(w, r, "Only an admin can delete a team")
			return
		}

		if err := service.Delete(ctx, team.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Team not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete team")
			apperrors.WriteInternalError(w, r, "Failed to delete team")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"deleted": true})
	}
}

// TeamIDParam extracts and parses the {teamID} route parameter.
func TeamIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "teamID"))
}

func loadTeamAndActor(w http.ResponseWriter, r *http.Request, service *Service, loader authz.UserLoader) (*Team, authz.Actor, bool) {
	ctx := r.Context()

	teamID, err := TeamIDParam(r)
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid team ID")
		return nil, authz.Actor{}, false
	}

	team, err := service.Get(ctx, teamID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apperrors.WriteNotFound(w, r, "Team not found")
			return nil, authz.Actor{}, false
		}
		log.Error().Err(err).Msg("Failed to load team")
		apperrors.WriteInternalError(w, r, "Failed to load team")
		return nil, authz.Actor{}, false
	}

	actor, _, err := authz.LoadActor(ctx, loader)
	if err != nil {
		apperrors.WriteUnauthorized(w, r, "Account no longer exists")
		return nil, authz.Actor{}, false
	}

	return team, actor, true
}
