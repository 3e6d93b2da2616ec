// Package mail delivers transactional notifications through an HTTP mail
// gateway. Delivery is best-effort: callers log failures and move on, and no
// business flow is ever rolled back because a message did not go out.
package mail

import "context"

// Kind selects the message template rendered by the gateway.
type Kind string

const (
	KindWelcome    Kind = "welcome"
	KindTeamInvite Kind = "team-invite"
)

// Mailer sends a templated message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, recipient string, kind Kind, data map[string]string) error
}

// Noop is a Mailer that silently accepts every message. Used when no gateway
// is configured and in tests.
type Noop struct{}

func (Noop) Send(ctx context.Context, recipient string, kind Kind, data map[string]string) error {
	return nil
}
