package tasks

import (
	"time"

	"github.com/google/uuid"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority is a task's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether the priority is one of the known values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a unit of work owned by a team.
type Task struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TeamID      uuid.UUID  `db:"team_id" json:"team_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      Status     `db:"status" json:"status"`
	Priority    Priority   `db:"priority" json:"priority"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	AssignedBy  uuid.UUID  `db:"assigned_by" json:"assigned_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AssigneeInfo is a task assignee with their user details.
type AssigneeInfo struct {
	AssignmentID uuid.UUID `db:"id" json:"assignment_id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	AssignedAt   time.Time `db:"assigned_at" json:"assigned_at"`
}

// Patch carries the optional fields of a task update. Nil fields are left
// unchanged.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	ClearDue    bool
}

// Filters narrows task listings.
type Filters struct {
	Status     *Status
	Priority   *Priority
	AssignedTo *uuid.UUID
	AssignedBy *uuid.UUID
	TeamID     *uuid.UUID
	Overdue    bool
	DueSoon    bool
}

// DueSoonWindow is how far ahead the due_soon filter looks.
const DueSoonWindow = 7 * 24 * time.Hour

// Statistics aggregates a team's task counts.
type Statistics struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	InProgress   int `json:"in_progress"`
	Completed    int `json:"completed"`
	Overdue      int `json:"overdue"`
	HighPriority int `json:"high_priority"`
}
