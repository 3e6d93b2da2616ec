package authz

// Action enumerates every gated operation. Dispatch is by constant, one
// handler per variant; no string or route-name matching.
type Action int

const (
	ActionCreateTeam Action = iota
	ActionViewTeamList
	ActionViewTeam
	ActionUpdateTeam
	ActionDeleteTeam
	ActionCreateTask
	ActionViewTask
	ActionUpdateTask
	ActionUpdateTaskStatus
	ActionDeleteTask
	ActionManageTaskAssignees
)

func (a Action) String() string {
	switch a {
	case ActionCreateTeam:
		return "create-team"
	case ActionViewTeamList:
		return "view-team-list"
	case ActionViewTeam:
		return "view-team"
	case ActionUpdateTeam:
		return "update-team"
	case ActionDeleteTeam:
		return "delete-team"
	case ActionCreateTask:
		return "create-task"
	case ActionViewTask:
		return "view-task"
	case ActionUpdateTask:
		return "update-task"
	case ActionUpdateTaskStatus:
		return "update-task-status"
	case ActionDeleteTask:
		return "delete-task"
	case ActionManageTaskAssignees:
		return "manage-task-assignees"
	}
	return "unknown"
}
