package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// workload is a YAML file describing a batch of tasks to submit.
type workload struct {
	Tasks []workloadTask `yaml:"tasks"`
}

// workloadTask is one task entry in a workload file. Name is a file-local
// handle other entries reference in depends_on; it is mapped to the real
// task ID at submission time.
type workloadTask struct {
	Name        string                 `yaml:"name"`
	Type        string                 `yaml:"type"`
	Description string                 `yaml:"description"`
	Priority    string                 `yaml:"priority"`
	Input       map[string]interface{} `yaml:"input"`
	DependsOn   []string               `yaml:"depends_on"`
}

// loadWorkload parses and validates a workload file.
func loadWorkload(path string) (*workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload %s: %w", path, err)
	}

	var w workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse workload %s: %w", path, err)
	}
	if len(w.Tasks) == 0 {
		return nil, fmt.Errorf("workload %s contains no tasks", path)
	}

	names := make(map[string]bool, len(w.Tasks))
	for i, t := range w.Tasks {
		if t.Type == "" {
			return nil, fmt.Errorf("workload %s: task %d has no type", path, i)
		}
		if t.Name != "" {
			if names[t.Name] {
				return nil, fmt.Errorf("workload %s: duplicate task name %q", path, t.Name)
			}
			names[t.Name] = true
		}
	}

	// Dependencies must reference earlier entries so submission order can
	// resolve them to real task IDs.
	seen := make(map[string]bool, len(w.Tasks))
	for _, t := range w.Tasks {
		for _, dep := range t.DependsOn {
			if !seen[dep] {
				return nil, fmt.Errorf("workload %s: task %q depends on %q which is not defined earlier", path, t.Name, dep)
			}
		}
		if t.Name != "" {
			seen[t.Name] = true
		}
	}

	return &w, nil
}

// priority converts the entry's priority name, defaulting to normal.
func (t workloadTask) priority() models.TaskPriority {
	if t.Priority == "" {
		return models.PriorityNormal
	}
	return models.ParsePriority(t.Priority)
}
