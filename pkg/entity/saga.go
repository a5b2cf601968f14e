package entity

import (
	"context"

	"github.com/latoulicious/arise-companion/pkg/logging"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// Saga records undo actions for a multi-step write. On the first failing
// step the caller runs Compensate, which undoes completed steps in reverse.
// Undo failures are logged and never returned.
type Saga struct {
	operation string
	logger    logging.Logger
	steps     []compensation
}

func NewSaga(operation string, logger logging.Logger) *Saga {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Saga{operation: operation, logger: logger}
}

// Defer registers the undo action of a step that just succeeded
func (s *Saga) Defer(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// Len returns the number of registered undo actions
func (s *Saga) Len() int {
	return len(s.steps)
}

// Compensate runs every registered undo action, last first. It runs even if
// ctx is already cancelled.
func (s *Saga) Compensate(ctx context.Context) {
	if s.Len() == 0 {
		return
	}
	s.logger.Warn("Rolling back", map[string]interface{}{
		"operation": s.operation,
		"steps":     s.Len(),
	})
	ctx = context.WithoutCancel(ctx)
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			s.logger.Error("Compensation failed", err, map[string]interface{}{
				"operation": s.operation,
				"step":      step.name,
			})
			continue
		}
		s.logger.Debug("Compensation applied", map[string]interface{}{
			"operation": s.operation,
			"step":      step.name,
		})
	}
	s.steps = nil
}
