package invites

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/users"
)

// Status is an invite's lifecycle state. pending is the only non-terminal
// state; accepted, expired and revoked are absorbing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusExpired, StatusRevoked:
		return true
	}
	return false
}

// TTL is how long an invite stays acceptable after issuance.
const TTL = 7 * 24 * time.Hour

// Invite is an invitation for an email address to join a team with a given
// role. The token is a bearer credential: it is returned to the issuing flow
// and mailed to the recipient, but never logged.
type Invite struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	TeamID     uuid.UUID  `db:"team_id" json:"team_id"`
	Email      string     `db:"email" json:"email"`
	Role       users.Role `db:"role" json:"role"`
	Status     Status     `db:"status" json:"status"`
	Token      string     `db:"token" json:"-"`
	InvitedBy  uuid.UUID  `db:"invited_by" json:"invited_by"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	AcceptedAt *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the invite's deadline has passed.
func (i *Invite) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}

// SendEntry is one requested invitation in a batch.
type SendEntry struct {
	Email string     `json:"email"`
	Role  users.Role `json:"role"`
}

// SendResult is the per-entry outcome of a batch send. InviteID is set
// whenever an invite row was created, even if mail delivery failed.
type SendResult struct {
	Email    string     `json:"email"`
	Success  bool       `json:"success"`
	Message  string     `json:"message"`
	InviteID *uuid.UUID `json:"invite_id,omitempty"`
}
