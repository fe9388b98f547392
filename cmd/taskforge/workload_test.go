package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

func writeWorkload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWorkload(t *testing.T) {
	path := writeWorkload(t, `
tasks:
  - name: analyze
    type: code_analysis
    description: review the auth module
    input:
      code: "def f(): pass"
  - name: report
    type: conversation
    priority: high
    depends_on: [analyze]
    input:
      message: summarize
`)

	w, err := loadWorkload(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(w.Tasks))
	}
	if w.Tasks[1].DependsOn[0] != "analyze" {
		t.Errorf("depends_on not parsed: %v", w.Tasks[1].DependsOn)
	}
	if w.Tasks[1].priority() != models.PriorityHigh {
		t.Errorf("priority not parsed: %v", w.Tasks[1].priority())
	}
	if w.Tasks[0].priority() != models.PriorityNormal {
		t.Errorf("missing priority must default to normal")
	}
}

func TestLoadWorkloadRejectsForwardDependency(t *testing.T) {
	path := writeWorkload(t, `
tasks:
  - name: report
    type: conversation
    depends_on: [analyze]
  - name: analyze
    type: code_analysis
`)

	if _, err := loadWorkload(path); err == nil {
		t.Error("forward dependency reference must be rejected")
	}
}

func TestLoadWorkloadRejectsMissingType(t *testing.T) {
	path := writeWorkload(t, `
tasks:
  - name: oops
    description: no type
`)

	if _, err := loadWorkload(path); err == nil {
		t.Error("task without type must be rejected")
	}
}

func TestLoadWorkloadRejectsDuplicateNames(t *testing.T) {
	path := writeWorkload(t, `
tasks:
  - name: twin
    type: conversation
  - name: twin
    type: conversation
`)

	if _, err := loadWorkload(path); err == nil {
		t.Error("duplicate task names must be rejected")
	}
}

func TestLoadWorkloadEmpty(t *testing.T) {
	path := writeWorkload(t, "tasks: []\n")
	if _, err := loadWorkload(path); err == nil {
		t.Error("empty workload must be rejected")
	}
}
