package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/marksync/internal/logger"
)

// Restorer loads persisted client state into the engine.
type Restorer interface {
	Restore(ctx context.Context) error
}

// StateSyncer restores the persisted client state on startup. A failure is
// logged and the client starts from a blank state.
type StateSyncer struct {
	engine Restorer
	logger logger.Logger
}

func NewStateSyncer(e Restorer, log logger.Logger) *StateSyncer {
	return &StateSyncer{engine: e, logger: log}
}

// Sync restores the state. It returns the error for callers that want it,
// but the poller can start either way.
func (s *StateSyncer) Sync(ctx context.Context) error {
	s.logger.Info("restoring client state")
	if err := s.engine.Restore(ctx); err != nil {
		s.logger.Warn("failed to restore client state, starting fresh",
			logger.Error(err))
		return err
	}
	return nil
}
