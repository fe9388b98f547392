package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

func newTask(id string, deps ...string) *models.Task {
	return &models.Task{
		ID:           id,
		Type:         "conversation",
		Priority:     models.PriorityNormal,
		Status:       models.TaskStatusPending,
		CreatedAt:    time.Now(),
		Dependencies: deps,
	}
}

func TestAddNoDepsIsReady(t *testing.T) {
	s := New()

	if ready, _ := s.Add(newTask("t1")); !ready {
		t.Error("task without dependencies must be immediately ready")
	}
}

func TestAddWithUnmetDepsNotReady(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))

	if ready, _ := s.Add(newTask("t2", "t1")); ready {
		t.Error("task with pending dependency must not be ready")
	}
}

func TestAddAfterDependencyFailedFailsImmediately(t *testing.T) {
	s := New()
	s.Add(newTask("d1"))
	s.MarkRunning("d1", "agent-1")
	s.Fail("d1", "executor exploded")

	// The cascade runs before the dependent exists, so it finds nothing.
	if failed := s.CascadeFail("d1", models.TaskStatusFailed); len(failed) != 0 {
		t.Fatalf("expected empty cascade, got %v", failed)
	}

	ready, doomed := s.Add(newTask("t2", "d1"))
	if ready {
		t.Error("task with failed dependency must not be ready")
	}
	if doomed == "" {
		t.Fatal("task added after its dependency failed must fail at Add")
	}

	v, _ := s.Get("t2")
	if v.Status != models.TaskStatusFailed {
		t.Errorf("expected failed, got %s", v.Status)
	}
	if v.Error != doomed {
		t.Errorf("expected error %q, got %q", doomed, v.Error)
	}
}

func TestAddAfterDependencyCancelledFailsImmediately(t *testing.T) {
	s := New()
	s.Add(newTask("d1"))
	s.Cancel("d1")

	ready, doomed := s.Add(newTask("t2", "d1"))
	if ready || doomed == "" {
		t.Fatalf("expected doomed task, got ready=%v doomed=%q", ready, doomed)
	}

	v, _ := s.Get("t2")
	if v.Status != models.TaskStatusFailed {
		t.Errorf("expected failed, got %s", v.Status)
	}
}

func TestGetUnknown(t *testing.T) {
	s := New()

	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkRunningSetsAgentAndStart(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))

	if !s.MarkRunning("t1", "agent-1") {
		t.Fatal("expected transition to running")
	}

	view, err := s.Get("t1")
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != models.TaskStatusRunning {
		t.Errorf("expected running, got %s", view.Status)
	}
	if view.AssignedAgent != "agent-1" {
		t.Errorf("expected assigned agent, got %q", view.AssignedAgent)
	}
	if view.StartedAt == nil {
		t.Error("running task must have a start timestamp")
	}
}

func TestMarkRunningCancelledTask(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.Cancel("t1")

	if s.MarkRunning("t1", "agent-1") {
		t.Error("cancelled task must not transition to running")
	}
}

func TestCompleteActivatesDependents(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.Add(newTask("t2", "t1"))

	s.MarkRunning("t1", "agent-1")
	if !s.Complete("t1", map[string]interface{}{"response": "done"}) {
		t.Fatal("expected completion")
	}

	activated := s.OnCompleted("t1")
	if len(activated) != 1 || activated[0].ID != "t2" {
		t.Fatalf("expected t2 activated, got %v", activated)
	}

	// A second scan must not activate it again.
	if again := s.OnCompleted("t1"); len(again) != 0 {
		t.Errorf("expected no double activation, got %v", again)
	}
}

func TestOnCompletedWaitsForAllDeps(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.Add(newTask("t2"))
	s.Add(newTask("t3", "t1", "t2"))

	s.MarkRunning("t1", "a")
	s.Complete("t1", nil)
	if activated := s.OnCompleted("t1"); len(activated) != 0 {
		t.Fatalf("t3 activated with unmet dependency: %v", activated)
	}

	s.MarkRunning("t2", "a")
	s.Complete("t2", nil)
	activated := s.OnCompleted("t2")
	if len(activated) != 1 || activated[0].ID != "t3" {
		t.Fatalf("expected t3 activated after all deps, got %v", activated)
	}
}

func TestCancelIdempotence(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))

	cancelled, _ := s.Cancel("t1")
	if !cancelled {
		t.Fatal("first cancel must succeed")
	}

	cancelled, _ = s.Cancel("t1")
	if cancelled {
		t.Error("second cancel must report false")
	}

	cancelled, _ = s.Cancel("unknown")
	if cancelled {
		t.Error("cancel of unknown task must report false")
	}
}

func TestCancelRunningReportsWasRunning(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.MarkRunning("t1", "agent-1")

	cancelled, wasRunning := s.Cancel("t1")
	if !cancelled || !wasRunning {
		t.Errorf("expected cancelled running task, got cancelled=%v wasRunning=%v", cancelled, wasRunning)
	}
}

func TestCompletionAfterCancelIsDiscarded(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.MarkRunning("t1", "agent-1")
	s.Cancel("t1")

	if s.Complete("t1", map[string]interface{}{"late": true}) {
		t.Error("completion must lose to an earlier cancellation")
	}

	view, _ := s.Get("t1")
	if view.Status != models.TaskStatusCancelled {
		t.Errorf("expected cancelled, got %s", view.Status)
	}
	if view.Result != nil {
		t.Error("late result must be discarded")
	}
}

func TestCancelAfterCompletionReportsFalse(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.MarkRunning("t1", "agent-1")
	s.Complete("t1", nil)

	cancelled, _ := s.Cancel("t1")
	if cancelled {
		t.Error("cancel must lose to an earlier completion")
	}
}

func TestCascadeFailDependents(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.Add(newTask("t2", "t1"))
	s.Add(newTask("t3", "t2"))

	s.MarkRunning("t1", "agent-1")
	s.Fail("t1", "executor exploded")

	failed := s.CascadeFail("t1", models.TaskStatusFailed)
	if len(failed) != 2 {
		t.Fatalf("expected 2 cascade-failed tasks, got %d", len(failed))
	}

	v2, _ := s.Get("t2")
	if v2.Status != models.TaskStatusFailed {
		t.Errorf("expected t2 failed, got %s", v2.Status)
	}
	if v2.Error == "" {
		t.Error("cascade-failed task must record the reason")
	}

	v3, _ := s.Get("t3")
	if v3.Status != models.TaskStatusFailed {
		t.Errorf("expected transitive dependent t3 failed, got %s", v3.Status)
	}
}

func TestRequeuedRejectsNonPending(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.Cancel("t1")

	if s.Requeued("t1") {
		t.Error("cancelled task must not be requeued")
	}
}

func TestStatusCounts(t *testing.T) {
	s := New()
	s.Add(newTask("t1"))
	s.Add(newTask("t2"))
	s.MarkRunning("t2", "agent-1")
	s.Complete("t2", nil)

	counts := s.StatusCounts()
	if counts[models.TaskStatusPending] != 1 {
		t.Errorf("expected 1 pending, got %d", counts[models.TaskStatusPending])
	}
	if counts[models.TaskStatusCompleted] != 1 {
		t.Errorf("expected 1 completed, got %d", counts[models.TaskStatusCompleted])
	}
}
