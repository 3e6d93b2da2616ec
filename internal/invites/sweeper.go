package invites

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper eagerly expires overdue pending invites on a schedule. Acceptance
// already expires lazily on read; the sweep keeps listings honest for invites
// nobody ever tries to accept.
type Sweeper struct {
	store Store
}

// NewSweeper creates an invite sweeper.
func NewSweeper(store Store) *Sweeper {
	return &Sweeper{store: store}
}

// Run performs one sweep.
func (s *Sweeper) Run(ctx context.Context) {
	expired, err := s.store.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("Invite sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Msg("Invite sweep expired overdue invites")
	}
}
