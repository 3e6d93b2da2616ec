package teams

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/users"
)

// Team represents a team of users.
type Team struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	LeadID    uuid.UUID `db:"lead_id" json:"lead_id"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Membership links a user to a team with a team-scoped role. The role here
// is independent from the user's global role.
type Membership struct {
	TeamID   uuid.UUID  `db:"team_id" json:"team_id"`
	UserID   uuid.UUID  `db:"user_id" json:"user_id"`
	Role     users.Role `db:"role" json:"role"`
	JoinedAt time.Time  `db:"joined_at" json:"joined_at"`
}

// MemberInfo is a team member with their user details.
type MemberInfo struct {
	UserID   uuid.UUID  `db:"user_id" json:"user_id"`
	Name     string     `db:"name" json:"name"`
	Email    string     `db:"email" json:"email"`
	Role     users.Role `db:"role" json:"role"`
	JoinedAt time.Time  `db:"joined_at" json:"joined_at"`
}

// TeamWithCounts combines a team with aggregate counts for list views.
type TeamWithCounts struct {
	Team
	MemberCount int `db:"member_count" json:"member_count"`
	TaskCount   int `db:"task_count" json:"task_count"`
}
