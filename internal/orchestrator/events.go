// Package orchestrator coordinates task submission, scheduling, and dispatch.
package orchestrator

import (
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventTaskQueued indicates a task is ready and queued for dispatch.
	EventTaskQueued EventType = "task_queued"
	// EventTaskStarted indicates a task has been handed to an agent.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed.
	EventTaskFailed EventType = "task_failed"
	// EventTaskCancelled indicates a task was cancelled.
	EventTaskCancelled EventType = "task_cancelled"
	// EventTaskRequeued indicates dispatch found no agent and the task
	// went back to the queue without losing its position.
	EventTaskRequeued EventType = "task_requeued"
	// EventWeightsAdjusted indicates the optimization job re-tuned the
	// hybrid strategy weights.
	EventWeightsAdjusted EventType = "weights_adjusted"
	// EventLoadWarning indicates predicted load is approaching the
	// concurrency ceiling.
	EventLoadWarning EventType = "load_warning"
)

// Event represents an event emitted by the orchestrator.
// These events feed the TUI and the run command's progress output.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// TaskType is the capability name of the related task, if applicable.
	TaskType string
	// AgentID is the ID of the related agent, if applicable.
	AgentID string
	// Priority is the related task's priority, if applicable.
	Priority models.TaskPriority
	// Message provides additional context about the event.
	Message string
	// Err contains error details for failure events.
	Err string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event to the subscriber channel without ever blocking the
// dispatch path. If no one is draining the channel the event is dropped.
func (o *Orchestrator) emit(ev Event) {
	ev.Timestamp = time.Now()
	select {
	case o.events <- ev:
	default:
		o.logger.Log("[events] dropped %s for task %s (subscriber slow)", ev.Type, ev.TaskID)
	}
}

// Events returns the channel of orchestrator events.
// The channel is buffered; events are dropped rather than blocking dispatch.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}
