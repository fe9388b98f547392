// Package pool tracks live agent instances and their in-flight load.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// ErrNoAgentAvailable indicates no existing agent had spare capacity and a
// new one could not be created. This is a transient condition: callers
// requeue the task rather than failing it.
var ErrNoAgentAvailable = errors.New("no agent available")

// Factory creates new agent instances of a given kind.
// This is the boundary to the external agent execution service.
type Factory interface {
	NewAgent(ctx context.Context, kind models.AgentKind) (*models.Agent, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, kind models.AgentKind) (*models.Agent, error)

// NewAgent implements Factory.
func (f FactoryFunc) NewAgent(ctx context.Context, kind models.AgentKind) (*models.Agent, error) {
	return f(ctx, kind)
}

// DefaultFactory returns a factory that creates plain in-process agent
// handles. Used when the execution service does not require per-agent setup.
func DefaultFactory() Factory {
	return FactoryFunc(func(_ context.Context, kind models.AgentKind) (*models.Agent, error) {
		return &models.Agent{
			ID:        "agent-" + uuid.New().String()[:8],
			Kind:      kind,
			CreatedAt: time.Now(),
		}, nil
	})
}

// Pool manages agent instances and their load bookkeeping.
type Pool struct {
	// factory creates new agents on demand.
	factory Factory
	// agents maps agent IDs to agent records.
	agents map[string]*models.Agent
	// loads maps agent IDs to their current in-flight task count.
	loads map[string]int
	// mu protects agents and loads.
	mu sync.RWMutex
}

// New creates a Pool backed by the given factory.
func New(factory Factory) *Pool {
	if factory == nil {
		factory = DefaultFactory()
	}
	return &Pool{
		factory: factory,
		agents:  make(map[string]*models.Agent),
		loads:   make(map[string]int),
	}
}

// GetOrCreate returns an agent eligible for the capability with spare
// capacity, creating a new agent of the capability's primary kind if none
// qualifies. Factory failures surface as ErrNoAgentAvailable.
func (p *Pool) GetOrCreate(ctx context.Context, cap models.Capability) (string, error) {
	p.mu.RLock()
	var best string
	bestLoad := -1
	for id, agent := range p.agents {
		if !cap.Eligible(agent.Kind) {
			continue
		}
		load := p.loads[id]
		if load >= cap.MaxConcurrentTasks {
			continue
		}
		if bestLoad < 0 || load < bestLoad {
			best, bestLoad = id, load
		}
	}
	p.mu.RUnlock()

	if best != "" {
		return best, nil
	}

	agent, err := p.factory.NewAgent(ctx, cap.PrimaryKind())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAgentAvailable, err)
	}
	if agent.ID == "" {
		agent.ID = "agent-" + uuid.New().String()[:8]
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now()
	}

	p.mu.Lock()
	p.agents[agent.ID] = agent
	p.loads[agent.ID] = 0
	p.mu.Unlock()

	return agent.ID, nil
}

// Candidates returns IDs of agents eligible for the capability whose load
// is below the capability's concurrency ceiling.
func (p *Pool) Candidates(cap models.Capability) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var ids []string
	for id, agent := range p.agents {
		if cap.Eligible(agent.Kind) && p.loads[id] < cap.MaxConcurrentTasks {
			ids = append(ids, id)
		}
	}
	return ids
}

// Load returns the current in-flight task count for an agent.
// Unknown agents report zero load.
func (p *Pool) Load(agentID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loads[agentID]
}

// Increment records that a task was dispatched to the agent.
func (p *Pool) Increment(agentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads[agentID]++
}

// Decrement records that a task finished on the agent.
// Safe to call even if the matching increment never happened: the load
// never goes below zero.
func (p *Pool) Decrement(agentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loads[agentID] > 0 {
		p.loads[agentID]--
	}
}

// Loads returns a copy of the current load map.
func (p *Pool) Loads() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	loads := make(map[string]int, len(p.loads))
	for id, load := range p.loads {
		loads[id] = load
	}
	return loads
}

// Agent returns the agent record for an ID, or nil if unknown.
func (p *Pool) Agent(agentID string) *models.Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.agents[agentID]
}

// Count returns the number of live agents.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.agents)
}
