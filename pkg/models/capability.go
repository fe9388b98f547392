package models

import "time"

// Capability defines the eligibility rules for a registered task type.
// Capabilities are immutable after registration and shared read-only by
// the scheduler and the agent pool.
type Capability struct {
	// Name is the task type this capability serves.
	Name string `json:"name" yaml:"name"`
	// Description is a human-readable summary of the capability.
	Description string `json:"description" yaml:"description"`
	// AgentKinds lists the agent kinds eligible to execute this task type.
	AgentKinds []AgentKind `json:"agent_kinds" yaml:"agent_kinds"`
	// RequiredTools lists tool names the executing agent must have.
	RequiredTools []string `json:"required_tools,omitempty" yaml:"required_tools,omitempty"`
	// MaxConcurrentTasks caps how many tasks of this type one agent may run.
	MaxConcurrentTasks int `json:"max_concurrent_tasks" yaml:"max_concurrent_tasks"`
	// EstimatedDuration is the baseline duration estimate for this task type.
	EstimatedDuration time.Duration `json:"estimated_duration" yaml:"estimated_duration"`
}

// PrimaryKind returns the first eligible agent kind.
// New agents created for this capability are of this kind.
func (c Capability) PrimaryKind() AgentKind {
	if len(c.AgentKinds) == 0 {
		return AgentKindGeneral
	}
	return c.AgentKinds[0]
}

// Eligible returns true if an agent of the given kind may execute
// tasks of this capability.
func (c Capability) Eligible(kind AgentKind) bool {
	for _, k := range c.AgentKinds {
		if k == kind {
			return true
		}
	}
	return false
}
