package invites

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
)

func TestSweeperRun(t *testing.T) {
	store := &MockStore{}
	store.On("ExpireDue", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	NewSweeper(store).Run(context.Background())

	store.AssertCalled(t, "ExpireDue", mock.Anything, mock.AnythingOfType("time.Time"))
}

func TestSweeperRun_SwallowsError(t *testing.T) {
	store := &MockStore{}
	store.On("ExpireDue", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	// Must not panic; the sweep just logs and waits for the next tick.
	NewSweeper(store).Run(context.Background())
}
