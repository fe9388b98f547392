package models

import "testing"

func TestTaskStatusValid(t *testing.T) {
	valid := []TaskStatus{
		TaskStatusPending,
		TaskStatusRunning,
		TaskStatusCompleted,
		TaskStatusFailed,
		TaskStatusCancelled,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	if TaskStatus("queued").Valid() {
		t.Error("expected unknown status to be invalid")
	}
	if TaskStatus("").Valid() {
		t.Error("expected empty status to be invalid")
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}

	if TaskStatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if TaskStatusRunning.Terminal() {
		t.Error("running must not be terminal")
	}
}

func TestTaskPriorityOrdering(t *testing.T) {
	if !(PriorityLow < PriorityNormal && PriorityNormal < PriorityHigh && PriorityHigh < PriorityUrgent) {
		t.Error("priorities must be strictly ordered low < normal < high < urgent")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name string
		want TaskPriority
	}{
		{"low", PriorityLow},
		{"normal", PriorityNormal},
		{"high", PriorityHigh},
		{"urgent", PriorityUrgent},
		{"bogus", PriorityNormal},
		{"", PriorityNormal},
	}

	for _, tt := range tests {
		if got := ParsePriority(tt.name); got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTaskView(t *testing.T) {
	task := &Task{
		ID:            "task-1",
		Type:          "conversation",
		Status:        TaskStatusCompleted,
		Priority:      PriorityHigh,
		AssignedAgent: "agent-1",
		Result:        map[string]interface{}{"response": "ok"},
	}

	view := task.View()
	if view.ID != "task-1" {
		t.Errorf("expected ID task-1, got %s", view.ID)
	}
	if view.Status != TaskStatusCompleted {
		t.Errorf("expected completed status, got %s", view.Status)
	}
	if view.AssignedAgent != "agent-1" {
		t.Errorf("expected agent-1, got %s", view.AssignedAgent)
	}
	if view.Result["response"] != "ok" {
		t.Error("expected result to carry through")
	}
}
