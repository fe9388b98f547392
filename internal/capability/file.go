package capability

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// fileCapability is the YAML shape of a user-defined capability.
// Durations are given in seconds to keep the file format simple.
type fileCapability struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	AgentKinds         []string `yaml:"agent_kinds"`
	RequiredTools      []string `yaml:"required_tools"`
	MaxConcurrentTasks int      `yaml:"max_concurrent_tasks"`
	EstimatedSeconds   float64  `yaml:"estimated_seconds"`
}

type capabilityFile struct {
	Capabilities []fileCapability `yaml:"capabilities"`
}

// LoadFile registers additional capabilities from a YAML file.
// Entries with names matching built-ins override them.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read capability file: %w", err)
	}

	var file capabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse capability file %s: %w", path, err)
	}

	for _, fc := range file.Capabilities {
		kinds := make([]models.AgentKind, 0, len(fc.AgentKinds))
		for _, k := range fc.AgentKinds {
			kinds = append(kinds, models.AgentKind(k))
		}

		cap := models.Capability{
			Name:               fc.Name,
			Description:        fc.Description,
			AgentKinds:         kinds,
			RequiredTools:      fc.RequiredTools,
			MaxConcurrentTasks: fc.MaxConcurrentTasks,
			EstimatedDuration:  time.Duration(fc.EstimatedSeconds * float64(time.Second)),
		}
		if err := r.Register(cap); err != nil {
			return fmt.Errorf("register capability from %s: %w", path, err)
		}
	}

	return nil
}
