// Package store provides the authoritative task map and dependency resolver.
// The store is the single source of truth for task lifecycle state: every
// status transition happens under its lock, which serializes racing
// completions and cancellations deterministically (first transition wins,
// the loser observes a terminal state and becomes a no-op).
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// ErrNotFound indicates a task ID is not known to the store.
var ErrNotFound = errors.New("task not found")

// Store owns the task map and tracks which tasks have been handed to the
// ready queue so a task is never enqueued twice.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
	// queued tracks task IDs currently in (or handed to) the ready queue.
	queued map[string]bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		tasks:  make(map[string]*models.Task),
		queued: make(map[string]bool),
	}
}

// Add registers a newly submitted task.
// Returns ready=true if the task is immediately ready for the queue (all
// dependencies completed); the store records it as queued in that case.
// A dependency that already failed or was cancelled fails the task on the
// spot and returns the failure message in doomed. The check happens under
// the store lock: a racing cascade either sees the task in the map or Add
// sees the terminal dependency, so the task can never strand in PENDING.
func (s *Store) Add(task *models.Task) (ready bool, doomed string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = task

	for _, depID := range task.Dependencies {
		dep, ok := s.tasks[depID]
		if !ok {
			continue
		}
		if dep.Status == models.TaskStatusFailed || dep.Status == models.TaskStatusCancelled {
			doomed = fmt.Sprintf("dependency %s %s", depID, dep.Status)
			s.failLocked(task.ID, doomed)
			return false, doomed
		}
	}

	if s.depsCompletedLocked(task) {
		s.queued[task.ID] = true
		return true, ""
	}
	return false, ""
}

// Get returns a read-only snapshot of the task.
func (s *Store) Get(taskID string) (models.TaskView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return models.TaskView{}, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	return task.View(), nil
}

// Snapshot returns a copy of the full task entity for internal use by the
// dispatch loop and scheduler. Mutating the copy has no effect on the store.
func (s *Store) Snapshot(taskID string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return models.Task{}, false
	}
	return *task, true
}

// MarkRunning transitions a task from PENDING to RUNNING and records the
// assigned agent and start time. Returns false if the task is no longer
// pending (e.g. it was cancelled while queued).
func (s *Store) MarkRunning(taskID, agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.Status != models.TaskStatusPending {
		return false
	}

	now := time.Now()
	task.Status = models.TaskStatusRunning
	task.AssignedAgent = agentID
	task.StartedAt = &now
	delete(s.queued, taskID)
	return true
}

// Complete transitions a task from RUNNING to COMPLETED with the given
// result. Returns false if the task already reached a terminal state
// (a cancellation won the race); the result is discarded in that case.
func (s *Store) Complete(taskID string, result map[string]interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.Status != models.TaskStatusRunning {
		return false
	}

	now := time.Now()
	task.Status = models.TaskStatusCompleted
	task.Result = result
	task.CompletedAt = &now
	return true
}

// Fail transitions a task to FAILED with the given error message.
// Applies to RUNNING tasks (execution failure) and PENDING tasks
// (dependency cascade). Returns false if the task is already terminal.
func (s *Store) Fail(taskID, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(taskID, errMsg)
}

func (s *Store) failLocked(taskID, errMsg string) bool {
	task, ok := s.tasks[taskID]
	if !ok || task.Status.Terminal() {
		return false
	}

	now := time.Now()
	task.Status = models.TaskStatusFailed
	task.Error = errMsg
	task.CompletedAt = &now
	delete(s.queued, taskID)
	return true
}

// Cancel transitions a task to CANCELLED. Returns cancelled=false if the
// task is unknown or already terminal, so a second cancel of the same task
// reports false. wasRunning tells the caller whether an in-flight execution
// needs its context cancelled (best effort).
func (s *Store) Cancel(taskID string) (cancelled, wasRunning bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.Status.Terminal() {
		return false, false
	}

	wasRunning = task.Status == models.TaskStatusRunning
	now := time.Now()
	task.Status = models.TaskStatusCancelled
	task.CompletedAt = &now
	delete(s.queued, taskID)
	return true, wasRunning
}

// OnCompleted scans pending tasks that depend on the completed task and
// returns those whose dependencies are now all satisfied. Returned tasks
// are recorded as queued; the caller must insert them into the ready queue.
func (s *Store) OnCompleted(completedID string) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var activated []models.Task
	for id, task := range s.tasks {
		if task.Status != models.TaskStatusPending || s.queued[id] {
			continue
		}
		if !dependsOn(task, completedID) {
			continue
		}
		if s.depsCompletedLocked(task) {
			s.queued[id] = true
			activated = append(activated, *task)
		}
	}
	return activated
}

// CascadeFail marks every pending task that (transitively) depends on the
// given terminal task as FAILED, so no task waits forever on a dependency
// that can never complete. Returns snapshots of the failed tasks.
func (s *Store) CascadeFail(terminalID string, terminalStatus models.TaskStatus) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var failed []models.Task
	frontier := []string{terminalID}
	reason := map[string]string{
		terminalID: fmt.Sprintf("dependency %s %s", terminalID, terminalStatus),
	}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		for id, task := range s.tasks {
			if task.Status != models.TaskStatusPending || !dependsOn(task, current) {
				continue
			}
			msg := reason[current]
			if s.failLocked(id, msg) {
				failed = append(failed, *task)
				reason[id] = fmt.Sprintf("dependency %s failed", id)
				frontier = append(frontier, id)
			}
		}
	}
	return failed
}

// Requeued records that a task has been put back on the ready queue after
// a dispatch attempt found no agent. Returns false if the task has since
// left the PENDING state (e.g. cancelled), meaning it must not be requeued.
func (s *Store) Requeued(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.Status != models.TaskStatusPending {
		return false
	}
	s.queued[taskID] = true
	return true
}

// Dequeued clears the queued flag when the dispatch loop pops a task it
// will not dispatch (unknown or no longer pending).
func (s *Store) Dequeued(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queued, taskID)
}

// StatusCounts returns the number of tasks per lifecycle status.
func (s *Store) StatusCounts() map[models.TaskStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.TaskStatus]int)
	for _, task := range s.tasks {
		counts[task.Status]++
	}
	return counts
}

// Running returns snapshots of all RUNNING tasks.
func (s *Store) Running() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var running []models.Task
	for _, task := range s.tasks {
		if task.Status == models.TaskStatusRunning {
			running = append(running, *task)
		}
	}
	return running
}

// Len returns the total number of tasks ever submitted.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// depsCompletedLocked reports whether every dependency of the task has
// status COMPLETED. Unknown dependency IDs count as unmet.
func (s *Store) depsCompletedLocked(task *models.Task) bool {
	for _, depID := range task.Dependencies {
		dep, ok := s.tasks[depID]
		if !ok || dep.Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}

func dependsOn(task *models.Task, depID string) bool {
	for _, id := range task.Dependencies {
		if id == depID {
			return true
		}
	}
	return false
}
