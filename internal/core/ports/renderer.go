package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and flush buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called with the units of work about to run.
	OnPlanEmit(names []string)

	// OnTaskStart is called when a unit of work begins.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a unit of work emits output.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a unit of work finishes. err is nil on success.
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
