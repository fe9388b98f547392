// Package executor defines the boundary to the agent execution service
// that actually performs task work, and provides an Anthropic-backed
// implementation.
package executor

import (
	"context"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// Executor performs the work for a dispatched task.
// The orchestrator treats this as an opaque asynchronous call: a nil error
// means success and the returned map is stored as the task result; a
// non-nil error fails the task with the error text retained.
// Implementations must honor context cancellation as their checkpoint for
// best-effort task cancellation.
type Executor interface {
	Execute(ctx context.Context, task models.Task) (map[string]interface{}, error)
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, task models.Task) (map[string]interface{}, error)

// Execute implements Executor.
func (f Func) Execute(ctx context.Context, task models.Task) (map[string]interface{}, error) {
	return f(ctx, task)
}
