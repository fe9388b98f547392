package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been submitted but not dispatched.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being executed by an agent.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task finished with an error.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled indicates the task was cancelled before completing.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are allowed from this status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskPriority represents the scheduling priority of a task.
// Higher values are dispatched first.
type TaskPriority int

const (
	// PriorityLow is for background work with no urgency.
	PriorityLow TaskPriority = 1
	// PriorityNormal is the default priority.
	PriorityNormal TaskPriority = 2
	// PriorityHigh is for work that should jump ahead of normal traffic.
	PriorityHigh TaskPriority = 3
	// PriorityUrgent is for work that must be dispatched as soon as possible.
	PriorityUrgent TaskPriority = 4
)

// Valid returns true if the priority is a known value.
func (p TaskPriority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

// String returns the lowercase name of the priority.
func (p TaskPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ParsePriority converts a priority name to a TaskPriority.
// Unknown names map to PriorityNormal.
func ParsePriority(name string) TaskPriority {
	switch name {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "urgent":
		return PriorityUrgent
	default:
		return PriorityNormal
	}
}

// Task represents a unit of work submitted to the orchestrator.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Type is the capability name this task requires.
	Type string `json:"type"`
	// Description is a human-readable summary of the work.
	Description string `json:"description,omitempty"`
	// Input is the opaque payload handed to the executor.
	Input map[string]interface{} `json:"input,omitempty"`
	// Priority determines dispatch order relative to other ready tasks.
	Priority TaskPriority `json:"priority"`
	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`
	// AssignedAgent is the ID of the agent executing this task, if any.
	AssignedAgent string `json:"assigned_agent,omitempty"`
	// CreatedAt is when the task was submitted.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when execution began, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Result holds the executor's output on success.
	Result map[string]interface{} `json:"result,omitempty"`
	// Error contains the failure message if the task failed.
	Error string `json:"error,omitempty"`
	// Dependencies lists task IDs that must complete before this task runs.
	Dependencies []string `json:"dependencies,omitempty"`
	// Subtasks lists child task IDs, informational only.
	Subtasks []string `json:"subtasks,omitempty"`
	// ParentTask is the ID of the parent task, informational only.
	ParentTask string `json:"parent_task,omitempty"`
}

// TaskView is the read-only snapshot returned by status queries.
// It decouples callers from the store-owned Task entity.
type TaskView struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Status        TaskStatus             `json:"status"`
	Priority      TaskPriority           `json:"priority"`
	AssignedAgent string                 `json:"assigned_agent,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	Result        map[string]interface{} `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// View returns a snapshot of the task for external callers.
func (t *Task) View() TaskView {
	return TaskView{
		ID:            t.ID,
		Type:          t.Type,
		Status:        t.Status,
		Priority:      t.Priority,
		AssignedAgent: t.AssignedAgent,
		CreatedAt:     t.CreatedAt,
		StartedAt:     t.StartedAt,
		CompletedAt:   t.CompletedAt,
		Result:        t.Result,
		Error:         t.Error,
	}
}
