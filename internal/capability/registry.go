// Package capability provides the registry mapping task types to the
// eligibility rules agents must satisfy to execute them.
package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// ErrNotFound indicates a task type has no registered capability.
type ErrNotFound struct {
	// TaskType is the unregistered type that was looked up.
	TaskType string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("unknown task type: %s", e.TaskType)
}

// Registry holds registered capabilities keyed by task type.
// Registration happens at startup; lookups afterward are read-only.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]models.Capability
}

// NewRegistry creates a registry pre-populated with the built-in capabilities.
func NewRegistry() *Registry {
	r := &Registry{caps: make(map[string]models.Capability)}
	for _, cap := range Builtin() {
		r.caps[cap.Name] = cap
	}
	return r
}

// Register adds a capability to the registry, replacing any existing
// entry with the same name.
func (r *Registry) Register(cap models.Capability) error {
	if cap.Name == "" {
		return fmt.Errorf("capability name must not be empty")
	}
	if cap.MaxConcurrentTasks <= 0 {
		return fmt.Errorf("capability %s: max_concurrent_tasks must be positive", cap.Name)
	}
	for _, k := range cap.AgentKinds {
		if !k.Valid() {
			return fmt.Errorf("capability %s: unknown agent kind %q", cap.Name, k)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[cap.Name] = cap
	return nil
}

// Lookup returns the capability for a task type.
// Returns *ErrNotFound if the type is unregistered.
func (r *Registry) Lookup(taskType string) (models.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cap, ok := r.caps[taskType]
	if !ok {
		return models.Capability{}, &ErrNotFound{TaskType: taskType}
	}
	return cap, nil
}

// Has returns true if the task type is registered.
func (r *Registry) Has(taskType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.caps[taskType]
	return ok
}

// All returns every registered capability sorted by name.
func (r *Registry) All() []models.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]models.Capability, 0, len(r.caps))
	for _, cap := range r.caps {
		caps = append(caps, cap)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps
}
