package tasks

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/teams"
	"github.com/taskhive/taskhive/internal/validation"
)

// CreateRequest is the payload for POST /api/v1/teams/{teamID}/tasks
type CreateRequest struct {
	Title       string      `json:"title" validate:"required,max=255"`
	Description string      `json:"description" validate:"max=10000"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	DueDate     *time.Time  `json:"due_date"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids" validate:"max=50"`
}

// UpdateRequest is the payload for PUT /api/v1/tasks/{taskID}. Absent fields
// are left unchanged; clear_due_date removes the deadline.
type UpdateRequest struct {
	Title        *string    `json:"title" validate:"omitempty,max=255"`
	Description  *string    `json:"description" validate:"omitempty,max=10000"`
	Status       *Status    `json:"status"`
	Priority     *Priority  `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// StatusRequest is the payload for PATCH /api/v1/tasks/{taskID}/status
type StatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// AssigneesRequest is the payload for the assignee endpoints.
type AssigneesRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" validate:"required,min=1,max=50"`
}

// ListResponse carries a page of tasks.
type ListResponse struct {
	Tasks   []Task `json:"tasks"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// DetailResponse carries a task with its assignees.
type DetailResponse struct {
	Task      *Task          `json:"task"`
	Assignees []AssigneeInfo `json:"assignees"`
}

// HandleCreate handles POST /api/v1/teams/{teamID}/tasks
func HandleCreate(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, ok := loadTeam(w, r, teamService, loader)
		if !ok {
			return
		}

		allowed, err := engine.CanCreateTask(ctx, actor, authz.TeamRef{ID: team.ID, LeadID: team.LeadID})
		if err != nil {
			log.Error().Err(err).Msg("Failed to evaluate task creation access")
			apperrors.WriteInternalError(w, r, "Failed to create task")
			return
		}
		if !allowed {
			apperrors.WriteForbidden(w, r, "Only team members can create tasks")
			return
		}

		var req CreateRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if req.Status != "" && !req.Status.IsValid() {
			apperrors.WriteUnprocessable(w, r, "Invalid status")
			return
		}
		if req.Priority != "" && !req.Priority.IsValid() {
			apperrors.WriteUnprocessable(w, r, "Invalid priority")
			return
		}

		task, err := service.Create(ctx, CreateInput{
			TeamID:      team.ID,
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			Priority:    req.Priority,
			DueDate:     req.DueDate,
			AssigneeIDs: req.AssigneeIDs,
		}, actor.ID)
		if err != nil {
			if errors.Is(err, ErrAssigneeNotMember) {
				apperrors.WriteUnprocessable(w, r, "All assignees must be members of the team")
				return
			}
			log.Error().Err(err).Msg("Failed to create task")
			apperrors.WriteInternalError(w, r, "Failed to create task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{"task": task})
	}
}

// HandleListForTeam handles GET /api/v1/teams/{teamID}/tasks
func HandleListForTeam(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, ok := loadTeam(w, r, teamService, loader)
		if !ok {
			return
		}

		allowed, err := engine.CanViewTeam(ctx, actor, authz.TeamRef{ID: team.ID, LeadID: team.LeadID})
		if err != nil {
			log.Error().Err(err).Msg("Failed to evaluate team access")
			apperrors.WriteInternalError(w, r, "Failed to list tasks")
			return
		}
		if !allowed {
			apperrors.WriteForbidden(w, r, "You are not a member of this team")
			return
		}

		filters, err := parseFilters(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		page := validation.ParsePageParams(r)
		items, total, err := service.ListForTeam(ctx, team.ID, filters, page)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list tasks")
			apperrors.WriteInternalError(w, r, "Failed to list tasks")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, ListResponse{
			Tasks:   items,
			Total:   total,
			Page:    page.Page,
			PerPage: page.PerPage,
		})
	}
}

// HandleStatistics handles GET /api/v1/teams/{teamID}/tasks/statistics
func HandleStatistics(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, actor, ok := loadTeam(w, r, teamService, loader)
		if !ok {
			return
		}

		allowed, err := engine.CanViewTeam(ctx, actor, authz.TeamRef{ID: team.ID, LeadID: team.LeadID})
		if err != nil {
			log.Error().Err(err).Msg("Failed to evaluate team access")
			apperrors.WriteInternalError(w, r, "Failed to load statistics")
			return
		}
		if !allowed {
			apperrors.WriteForbidden(w, r, "You are not a member of this team")
			return
		}

		stats, err := service.Statistics(ctx, team.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load task statistics")
			apperrors.WriteInternalError(w, r, "Failed to load statistics")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"statistics": stats})
	}
}

// HandleGet handles GET /api/v1/tasks/{taskID}
func HandleGet(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		task, ref, actor, ok := loadTask(w, r, service, teamService, loader)
		if !ok {
			return
		}

		allowed, err := engine.CanViewTask(ctx, actor, ref)
		if err != nil {
			log.Error().Err(err).Msg("Failed to evaluate task access")
			apperrors.WriteInternalError(w, r, "Failed to load task")
			return
		}
		if !allowed {
			apperrors.WriteForbidden(w, r, "You cannot view this task")
			return
		}

		task, assignees, err := service.GetWithAssignees(ctx, task.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load task")
			apperrors.WriteInternalError(w, r, "Failed to load task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, DetailResponse{Task: task, Assignees: assignees})
	}
}

// HandleUpdate handles PUT /api/v1/tasks/{taskID}
func HandleUpdate(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		task, ref, actor, ok := loadTask(w, r, service, teamService, loader)
		if !ok {
			return
		}

		if !engine.CanUpdateTask(actor, ref) {
			apperrors.WriteForbidden(w, r, "Only an admin, the team lead, or the assigner can update this task")
			return
		}

		var req UpdateRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if req.Status != nil && !req.Status.IsValid() {
			apperrors.WriteUnprocessable(w, r, "Invalid status")
			return
		}
		if req.Priority != nil && !req.Priority.IsValid() {
			apperrors.WriteUnprocessable(w, r, "Invalid priority")
			return
		}

		updated, err := service.Update(ctx, task.ID, Patch{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			Priority:    req.Priority,
			DueDate:     req.DueDate,
			ClearDue:    req.ClearDueDate,
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Task not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update task")
			apperrors.WriteInternalError(w, r, "Failed to update task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"task": updated})
	}
}

// HandleUpdateStatus handles PATCH /api/v1/tasks/{taskID}/status
func HandleUpdateStatus(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		task, ref, actor, ok := loadTask(w, r, service, teamService, loader)
		if !ok {
			return
		}

		allowed, err := engine.CanUpdateTaskStatus(ctx, actor, ref)
		if err != nil {
			log.Error().Err(err).Msg("Failed to evaluate task access")
			apperrors.WriteInternalError(w, r, "Failed to update task status")
			return
		}
		if !allowed {
			apperrors.WriteForbidden(w, r, "You cannot update this task's status")
			return
		}

		var req StatusRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if !req.Status.IsValid() {
			apperrors.WriteUnprocessable(w, r, "Invalid status")
			return
		}

		updated, err := service.UpdateStatus(ctx, task.ID, req.Status)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Task not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update task status")
			apperrors.WriteInternalError(w, r, "Failed to update task status")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"task": updated})
	}
}

// HandleDelete handles DELETE /api/v1/tasks/{taskID}
func HandleDelete(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		task, ref, actor, ok := loadTask(w, r, service, teamService, loader)
		if !ok {
			return
		}

		if !engine.CanDeleteTask(actor, ref) {
			apperrors.WriteForbidden(w, r, "Only an admin or the team lead can delete this task")
			return
		}

		if err := service.Delete(ctx, task.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Task not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete task")
			apperrors.WriteInternalError(w, r, "Failed to delete task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"deleted": true})
	}
}

// HandleAssign handles POST /api/v1/tasks/{taskID}/assignees
func HandleAssign(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return assigneeMutation(service, teamService, engine, loader, func(ctx *assigneeContext) error {
		return service.AssignUsers(ctx.r.Context(), ctx.task, ctx.userIDs)
	})
}

// HandleRemoveAssignees handles DELETE /api/v1/tasks/{taskID}/assignees
func HandleRemoveAssignees(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return assigneeMutation(service, teamService, engine, loader, func(ctx *assigneeContext) error {
		return service.RemoveUsers(ctx.r.Context(), ctx.task, ctx.userIDs)
	})
}

// HandleReplaceAssignees handles PUT /api/v1/tasks/{taskID}/assignees
func HandleReplaceAssignees(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader) http.HandlerFunc {
	return assigneeMutation(service, teamService, engine, loader, func(ctx *assigneeContext) error {
		return service.ReplaceAssignees(ctx.r.Context(), ctx.task, ctx.userIDs)
	})
}

// HandleMyTasks handles GET /api/v1/my-tasks
func HandleMyTasks(service *Service, loader authz.UserLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, _, err := authz.LoadActor(ctx, loader)
		if err != nil {
			apperrors.WriteUnauthorized(w, r, "Account no longer exists")
			return
		}

		filters, err := parseFilters(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		page := validation.ParsePageParams(r)
		items, total, err := service.ListForAssignee(ctx, actor.ID, filters, page)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list assigned tasks")
			apperrors.WriteInternalError(w, r, "Failed to list tasks")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, ListResponse{
			Tasks:   items,
			Total:   total,
			Page:    page.Page,
			PerPage: page.PerPage,
		})
	}
}

type assigneeContext struct {
	r       *http.Request
	task    *Task
	userIDs []uuid.UUID
}

func assigneeMutation(service *Service, teamService *teams.Service, engine *authz.Engine, loader authz.UserLoader, mutate func(*assigneeContext) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, ref, actor, ok := loadTask(w, r, service, teamService, loader)
		if !ok {
			return
		}

		if !engine.CanManageTaskAssignees(actor, ref) {
			apperrors.WriteForbidden(w, r, "Only an admin, the team lead, or the assigner can manage assignees")
			return
		}

		var req AssigneesRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		if err := mutate(&assigneeContext{r: r, task: task, userIDs: req.UserIDs}); err != nil {
			if errors.Is(err, ErrAssigneeNotMember) {
				apperrors.WriteUnprocessable(w, r, "All assignees must be members of the team")
				return
			}
			log.Error().Err(err).Msg("Failed to update assignees")
			apperrors.WriteInternalError(w, r, "Failed to update assignees")
			return
		}

		assignees, err := service.Assignees(r.Context(), task.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list assignees")
			apperrors.WriteInternalError(w, r, "Failed to load assignees")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"assignees": assignees})
	}
}

func loadTeam(w http.ResponseWriter, r *http.Request, teamService *teams.Service, loader authz.UserLoader) (*teams.Team, authz.Actor, bool) {
	ctx := r.Context()

	teamID, err := teams.TeamIDParam(r)
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid team ID")
		return nil, authz.Actor{}, false
	}

	team, err := teamService.Get(ctx, teamID)
	if err != nil {
		if errors.Is(err, teams.ErrNotFound) {
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

func loadTask(w http.ResponseWriter, r *http.Request, service *Service, teamService *teams.Service, loader authz.UserLoader) (*Task, authz.TaskRef, authz.Actor, bool) {
	ctx := r.Context()

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid task ID")
		return nil, authz.TaskRef{}, authz.Actor{}, false
	}

	task, err := service.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apperrors.WriteNotFound(w, r, "Task not found")
			return nil, authz.TaskRef{}, authz.Actor{}, false
		}
		log.Error().Err(err).Msg("Failed to load task")
		apperrors.WriteInternalError(w, r, "Failed to load task")
		return nil, authz.TaskRef{}, authz.Actor{}, false
	}

	team, err := teamService.Get(ctx, task.TeamID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load task's team")
		apperrors.WriteInternalError(w, r, "Failed to load task")
		return nil, authz.TaskRef{}, authz.Actor{}, false
	}

	actor, _, err := authz.LoadActor(ctx, loader)
	if err != nil {
		apperrors.WriteUnauthorized(w, r, "Account no longer exists")
		return nil, authz.TaskRef{}, authz.Actor{}, false
	}

	ref := authz.TaskRef{
		ID:         task.ID,
		TeamID:     task.TeamID,
		TeamLeadID: team.LeadID,
		AssignedBy: task.AssignedBy,
	}
	return task, ref, actor, true
}

func parseFilters(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	var filters Filters

	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		if !status.IsValid() {
			return Filters{}, errors.New("invalid status filter")
		}
		filters.Status = &status
	}
	if raw := q.Get("priority"); raw != "" {
		priority := Priority(raw)
		if !priority.IsValid() {
			return Filters{}, errors.New("invalid priority filter")
		}
		filters.Priority = &priority
	}
	if raw := q.Get("assigned_to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filters{}, errors.New("invalid assigned_to filter")
		}
		filters.AssignedTo = &id
	}
	if raw := q.Get("assigned_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filters{}, errors.New("invalid assigned_by filter")
		}
		filters.AssignedBy = &id
	}
	if raw := q.Get("team_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filters{}, errors.New("invalid team_id filter")
		}
		filters.TeamID = &id
	}
	filters.Overdue = q.Get("overdue") == "true"
	filters.DueSoon = q.Get("due_soon") == "true"

	return filters, nil
}
