package models

import "time"

// AgentKind classifies what family of work an agent can perform.
type AgentKind string

const (
	// AgentKindGeneral handles conversation, retrieval, and query tasks.
	AgentKindGeneral AgentKind = "general"
	// AgentKindCoding handles code analysis, generation, and data analysis tasks.
	AgentKindCoding AgentKind = "coding"
)

// Valid returns true if the kind is a known value.
func (k AgentKind) Valid() bool {
	switch k {
	case AgentKindGeneral, AgentKindCoding:
		return true
	default:
		return false
	}
}

// Agent represents a live worker instance in the pool.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Kind determines which capabilities this agent is eligible for.
	Kind AgentKind `json:"kind"`
	// CreatedAt is when the agent was instantiated.
	CreatedAt time.Time `json:"created_at"`
}
